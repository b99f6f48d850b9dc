package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"matka/internal/models"
	"matka/internal/settlement"
)

func bettingFixture(at time.Time) (*stubRepo, *BettingService) {
	repo := newStubRepo()
	seedMarket(repo, "m1", "***", "**", "***")
	repo.customers["c1"] = &models.Customer{ID: "c1", Name: "Asha", Mobile: "9000000001", IsActive: true}
	repo.ratings["jodi"] = &models.Rating{ID: "jodi", Name: "Jodi 10:950", Type: "jodi",
		ConvertA: decimal.NewFromInt(10), ConvertB: decimal.NewFromInt(950), IsActive: true}
	repo.ratings["old"] = &models.Rating{ID: "old", Name: "Old", Type: "single",
		ConvertA: decimal.NewFromInt(10), ConvertB: decimal.NewFromInt(90), IsActive: false}
	svc := &BettingService{
		Repo:     repo,
		Flags:    &SystemSettingsService{Repo: repo},
		Location: time.UTC,
		Now:      func() time.Time { return at },
	}
	return repo, svc
}

func TestPlace_WindowStates(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want error
	}{
		{"before open", time.Date(2026, 3, 1, 9, 59, 0, 0, time.UTC), ErrMarketNotOpen},
		{"inside", time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC), nil},
		{"last minute", time.Date(2026, 3, 1, 18, 0, 30, 0, time.UTC), nil},
		{"after close", time.Date(2026, 3, 1, 18, 1, 0, 0, time.UTC), ErrMarketClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, svc := bettingFixture(tc.at)
			_, err := svc.Place(context.Background(), PlaceBetInput{
				CustomerID: "c1", MarketID: "m1", RatingID: "jodi",
				ChosenNumber: "42", Amount: decimal.NewFromInt(10),
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want=%v", err, tc.want)
			}
		})
	}
}

func TestPlace_StoresPendingBet(t *testing.T) {
	repo, svc := bettingFixture(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	bet, err := svc.Place(context.Background(), PlaceBetInput{
		CustomerID: "c1", MarketID: "m1", RatingID: "jodi",
		ChosenNumber: " 07 ", Amount: decimal.NewFromInt(25),
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	stored := repo.bets[bet.ID]
	if stored == nil || stored.Result != models.BetPending || stored.ChosenNumber != "07" {
		t.Fatalf("stored=%+v", stored)
	}
	if stored.OpeningResult != "0" {
		t.Fatalf("opening_result=%q want=0", stored.OpeningResult)
	}
}

func TestPlace_Rejections(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		in    PlaceBetInput
		setup func(*stubRepo)
		want  error
	}{
		{"zero amount", PlaceBetInput{CustomerID: "c1", MarketID: "m1", RatingID: "jodi", ChosenNumber: "42"}, nil, ErrInvalidInput},
		{"unknown customer", PlaceBetInput{CustomerID: "cx", MarketID: "m1", RatingID: "jodi", ChosenNumber: "42", Amount: decimal.NewFromInt(1)}, nil, ErrCustomerNotFound},
		{"unknown market", PlaceBetInput{CustomerID: "c1", MarketID: "mx", RatingID: "jodi", ChosenNumber: "42", Amount: decimal.NewFromInt(1)}, nil, settlement.ErrMarketNotFound},
		{"declared market", PlaceBetInput{CustomerID: "c1", MarketID: "m1", RatingID: "jodi", ChosenNumber: "42", Amount: decimal.NewFromInt(1)},
			func(r *stubRepo) { r.markets["m1"].IsDeclared = true }, settlement.ErrAlreadyDeclared},
		{"inactive market", PlaceBetInput{CustomerID: "c1", MarketID: "m1", RatingID: "jodi", ChosenNumber: "42", Amount: decimal.NewFromInt(1)},
			func(r *stubRepo) { r.markets["m1"].IsActive = false }, ErrMarketInactive},
		{"unknown rating", PlaceBetInput{CustomerID: "c1", MarketID: "m1", RatingID: "rx", ChosenNumber: "42", Amount: decimal.NewFromInt(1)}, nil, ErrRatingNotFound},
		{"inactive rating", PlaceBetInput{CustomerID: "c1", MarketID: "m1", RatingID: "old", ChosenNumber: "4", Amount: decimal.NewFromInt(1)}, nil, ErrRatingInactive},
		{"bad choice", PlaceBetInput{CustomerID: "c1", MarketID: "m1", RatingID: "jodi", ChosenNumber: "420", Amount: decimal.NewFromInt(1)}, nil, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, svc := bettingFixture(at)
			if tc.setup != nil {
				tc.setup(repo)
			}
			_, err := svc.Place(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want=%v", err, tc.want)
			}
			if len(repo.bets) != 0 {
				t.Fatalf("bets=%d want=0", len(repo.bets))
			}
		})
	}
}

func TestPlace_FeatureSwitchOff(t *testing.T) {
	repo, svc := bettingFixture(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	raw, _ := json.Marshal(false)
	repo.settings[FeatureBetting] = &models.SystemSetting{Key: FeatureBetting, Value: raw}

	_, err := svc.Place(context.Background(), PlaceBetInput{
		CustomerID: "c1", MarketID: "m1", RatingID: "jodi",
		ChosenNumber: "42", Amount: decimal.NewFromInt(10),
	})
	if !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("err=%v want=%v", err, ErrFeatureDisabled)
	}
}
