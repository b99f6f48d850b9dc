package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"matka/internal/cache"
	"matka/internal/models"
	"matka/internal/settlement"
)

func seedMarket(repo *stubRepo, id string, open, jodi, close string) {
	repo.markets[id] = &models.Market{
		ID:         id,
		Name:       "Kalyan " + id,
		OpenPanna:  open,
		Jodi:       jodi,
		ClosePanna: close,
		StartAt:    time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC),
		IsActive:   true,
	}
}

func TestDeclareAndSettle_UnknownMarket(t *testing.T) {
	repo := newStubRepo()
	q := &recordingQueue{}
	svc := &MarketService{Repo: repo, Queue: q}

	_, err := svc.DeclareAndSettle(context.Background(), "nope")
	if !errors.Is(err, settlement.ErrMarketNotFound) {
		t.Fatalf("err=%v want=%v", err, settlement.ErrMarketNotFound)
	}
	if got := q.submitted(); len(got) != 0 {
		t.Fatalf("submitted=%v want none", got)
	}
}

func TestDeclareAndSettle_SubmitsOnce(t *testing.T) {
	repo := newStubRepo()
	seedMarket(repo, "m1", "123", "68", "459")
	q := &recordingQueue{}
	svc := &MarketService{Repo: repo, Queue: q}

	m, err := svc.DeclareAndSettle(context.Background(), "m1")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !m.IsDeclared || m.DeclaredAt == nil {
		t.Fatalf("market not declared: %+v", m)
	}
	_, err = svc.DeclareAndSettle(context.Background(), "m1")
	if !errors.Is(err, settlement.ErrAlreadyDeclared) {
		t.Fatalf("second err=%v want=%v", err, settlement.ErrAlreadyDeclared)
	}
	got := q.submitted()
	if len(got) != 1 || got[0] != "m1/"+models.RunTriggerDeclare {
		t.Fatalf("submitted=%v want [m1/declare]", got)
	}
}

func TestDeclareAndSettle_QueueFullStillDeclares(t *testing.T) {
	repo := newStubRepo()
	seedMarket(repo, "m1", "123", "68", "459")
	q := &recordingQueue{err: settlement.ErrQueueFull}
	sink := &recordingSink{}
	svc := &MarketService{Repo: repo, Queue: q, Sink: sink}

	m, err := svc.DeclareAndSettle(context.Background(), "m1")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !m.IsDeclared {
		t.Fatalf("market not declared")
	}
	if sink.count("settlement_enqueue_failed") != 1 {
		t.Fatalf("expected enqueue failure event")
	}
}

func TestDeclareAndSettle_SettlesInBackground(t *testing.T) {
	repo := newStubRepo()
	seedMarket(repo, "m1", "123", "68", "459")
	repo.ratings["r1"] = &models.Rating{ID: "r1", Name: "single", Type: "single",
		ConvertA: decimal.NewFromInt(10), ConvertB: decimal.NewFromInt(95), IsActive: true}
	repo.bets["b1"] = &models.Betting{ID: "b1", CustomerID: "c1", MarketID: "m1", RatingID: "r1",
		ChosenNumber: "6", Amount: decimal.NewFromInt(100), Result: models.BetPending}
	repo.bets["b2"] = &models.Betting{ID: "b2", CustomerID: "c1", MarketID: "m1", RatingID: "r1",
		ChosenNumber: "3", Amount: decimal.NewFromInt(50), Result: models.BetPending}

	sweeper := &settlement.Sweeper{Repo: repo}
	d := settlement.NewDispatcher(sweeper, 2, 8, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	svc := &MarketService{Repo: repo, Queue: d}
	if _, err := svc.DeclareAndSettle(ctx, "m1"); err != nil {
		t.Fatalf("err=%v", err)
	}

	// open ank 6 wins 100/10*95=950, close ank 8 loses 50.
	want := decimal.NewFromInt(900)
	deadline := time.Now().Add(2 * time.Second)
	for {
		b, _ := repo.GetBalanceByCustomerID(ctx, "c1")
		if b != nil && b.BalanceAmount.Equal(want) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("balance=%v want=%s", b, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if pending, _ := repo.ListPendingBetsByMarket(ctx, "m1"); len(pending) != 0 {
		t.Fatalf("pending=%d want=0", len(pending))
	}
	runs, err := svc.ListRuns(ctx, "m1", 10)
	if err != nil || len(runs) != 1 || runs[0].Trigger != models.RunTriggerDeclare {
		t.Fatalf("runs=%+v err=%v", runs, err)
	}
}

func TestUpdate_OutcomeLockedAfterSettlement(t *testing.T) {
	repo := newStubRepo()
	seedMarket(repo, "m1", "123", "68", "459")
	repo.markets["m1"].IsDeclared = true
	repo.bets["b1"] = &models.Betting{ID: "b1", MarketID: "m1", Result: models.BetWin}
	svc := &MarketService{Repo: repo}

	jodi := "11"
	_, err := svc.Update(context.Background(), "m1", MarketInput{Jodi: &jodi})
	if !errors.Is(err, ErrOutcomeLocked) {
		t.Fatalf("err=%v want=%v", err, ErrOutcomeLocked)
	}
}

func TestUpdate_MalformedOutcomeCanBeCorrected(t *testing.T) {
	repo := newStubRepo()
	seedMarket(repo, "m1", "***", "**", "***")
	repo.markets["m1"].IsDeclared = true
	repo.bets["b1"] = &models.Betting{ID: "b1", MarketID: "m1", Result: models.BetPending}
	svc := &MarketService{Repo: repo}

	open, jodi, close := "123", "68", "459"
	m, err := svc.Update(context.Background(), "m1", MarketInput{OpenPanna: &open, Jodi: &jodi, ClosePanna: &close})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !m.IsDeclared {
		t.Fatalf("update must not clear the declared flag")
	}
	if m.OpenPanna != "123" || m.ClosePanna != "459" {
		t.Fatalf("outcome=%s/%s/%s", m.OpenPanna, m.Jodi, m.ClosePanna)
	}
}

func TestCreate_RejectsBadResultShape(t *testing.T) {
	svc := &MarketService{Repo: newStubRepo()}
	bad := "12a"
	_, err := svc.Create(context.Background(), MarketInput{
		Name:      "Milan",
		StartAt:   time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		EndAt:     time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC),
		OpenPanna: &bad,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err=%v want=%v", err, ErrInvalidInput)
	}
}

func TestList_CacheInvalidatedOnCreate(t *testing.T) {
	repo := newStubRepo()
	seedMarket(repo, "m1", "***", "**", "***")
	catalog := &cache.Catalog{Store: cache.NewMemoryStore(), TTL: time.Minute}
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	svc := &MarketService{Repo: repo, Cache: catalog, Now: func() time.Time { return now }}
	ctx := context.Background()

	first, err := svc.List(ctx, false)
	if err != nil || len(first) != 1 {
		t.Fatalf("len=%d err=%v", len(first), err)
	}
	if first[0].WindowState != models.WindowOpened {
		t.Fatalf("window=%s want=%s", first[0].WindowState, models.WindowOpened)
	}
	if _, err := svc.Create(ctx, MarketInput{
		Name:    "Milan",
		StartAt: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create err=%v", err)
	}
	second, err := svc.List(ctx, false)
	if err != nil || len(second) != 2 {
		t.Fatalf("len=%d err=%v want=2", len(second), err)
	}
}

func TestResettle_RequiresDeclared(t *testing.T) {
	repo := newStubRepo()
	seedMarket(repo, "m1", "123", "68", "459")
	q := &recordingQueue{}
	svc := &MarketService{Repo: repo, Queue: q}

	if err := svc.Resettle(context.Background(), "m1"); !errors.Is(err, settlement.ErrNotDeclared) {
		t.Fatalf("err=%v want=%v", err, settlement.ErrNotDeclared)
	}
	repo.markets["m1"].IsDeclared = true
	if err := svc.Resettle(context.Background(), "m1"); err != nil {
		t.Fatalf("err=%v", err)
	}
	if got := q.submitted(); len(got) != 1 || got[0] != "m1/"+models.RunTriggerManual {
		t.Fatalf("submitted=%v", got)
	}
}
