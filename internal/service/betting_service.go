package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"matka/internal/models"
	"matka/internal/repository"
	"matka/internal/settlement"
)

type BettingService struct {
	Repo     repository.Repository
	Flags    *SystemSettingsService
	Logger   *zap.Logger
	Location *time.Location
	Now      func() time.Time
}

type PlaceBetInput struct {
	CustomerID   string
	MarketID     string
	RatingID     string
	ChosenNumber string
	Amount       decimal.Decimal
}

// Place records a Pending bet. The stake is not debited here; settlement
// applies either the payout or the negated stake.
func (s *BettingService) Place(ctx context.Context, in PlaceBetInput) (*models.Betting, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("betting service not configured")
	}
	if !s.Flags.IsEnabled(ctx, FeatureBetting, true) {
		return nil, fmt.Errorf("%w: %s", ErrFeatureDisabled, FeatureBetting)
	}
	choice := strings.TrimSpace(in.ChosenNumber)
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	customer, err := s.Repo.GetCustomerByID(ctx, strings.TrimSpace(in.CustomerID))
	if err != nil {
		return nil, err
	}
	if customer == nil || !customer.IsActive {
		return nil, ErrCustomerNotFound
	}

	market, err := s.Repo.GetMarketByID(ctx, strings.TrimSpace(in.MarketID))
	if err != nil {
		return nil, err
	}
	if market == nil {
		return nil, settlement.ErrMarketNotFound
	}
	if !market.IsActive {
		return nil, ErrMarketInactive
	}
	if market.IsDeclared {
		return nil, settlement.ErrAlreadyDeclared
	}
	switch market.WindowState(s.localNow()) {
	case models.WindowUpcoming:
		return nil, ErrMarketNotOpen
	case models.WindowClosed:
		return nil, ErrMarketClosed
	}

	rating, err := s.Repo.GetRatingByID(ctx, strings.TrimSpace(in.RatingID))
	if err != nil {
		return nil, err
	}
	if rating == nil {
		return nil, ErrRatingNotFound
	}
	if !rating.IsActive {
		return nil, ErrRatingInactive
	}
	rt, err := settlement.ParseRatingType(rating.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := settlement.ValidateChoice(rt, choice); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	bet := &models.Betting{
		ID:            uuid.NewString(),
		CustomerID:    customer.ID,
		MarketID:      market.ID,
		RatingID:      rating.ID,
		ChosenNumber:  choice,
		Amount:        in.Amount,
		Result:        models.BetPending,
		OpeningResult: "0",
	}
	if err := s.Repo.CreateBetting(ctx, bet); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Debug("bet placed",
			zap.String("bet_id", bet.ID),
			zap.String("market_id", bet.MarketID),
			zap.String("rating_type", rt.String()),
		)
	}
	return bet, nil
}

func (s *BettingService) localNow() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if s.Location == nil {
		return now.UTC()
	}
	return now.In(s.Location)
}
