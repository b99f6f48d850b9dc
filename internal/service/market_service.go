package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"matka/internal/cache"
	"matka/internal/models"
	"matka/internal/notify"
	"matka/internal/repository"
	"matka/internal/settlement"
)

const (
	cacheKeyMarketsAll    = "markets:all"
	cacheKeyMarketsActive = "markets:active"
)

// SettlementQueue accepts sweep jobs without waiting for them to run.
type SettlementQueue interface {
	Submit(marketID, trigger string) error
}

type MarketService struct {
	Repo     repository.Repository
	Queue    SettlementQueue
	Cache    *cache.Catalog
	Logger   *zap.Logger
	Sink     notify.Sink
	Location *time.Location
	Now      func() time.Time
}

type MarketInput struct {
	Name       string
	OpenPanna  *string
	Jodi       *string
	ClosePanna *string
	StartAt    time.Time
	EndAt      time.Time
	IsActive   *bool
	Actor      string
}

// MarketView is a market with its window state for the current time of day.
type MarketView struct {
	models.Market
	WindowState string
}

func (s *MarketService) Create(ctx context.Context, in MarketInput) (*models.Market, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("market service not configured")
	}
	m := &models.Market{
		ID:         uuid.NewString(),
		OpenPanna:  models.PlaceholderPanna,
		Jodi:       models.PlaceholderJodi,
		ClosePanna: models.PlaceholderPanna,
		IsActive:   true,
		CreatedBy:  strings.TrimSpace(in.Actor),
		UpdatedBy:  strings.TrimSpace(in.Actor),
	}
	if err := applyMarketInput(m, in); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateMarket(ctx, m); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return m, nil
}

// Update edits a market. The outcome of a declared market may only change
// while none of its bets has been settled, so a malformed outcome can be fixed
// and re-swept.
func (s *MarketService) Update(ctx context.Context, id string, in MarketInput) (*models.Market, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("market service not configured")
	}
	m, err := s.Repo.GetMarketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, settlement.ErrMarketNotFound
	}
	before := [3]string{m.OpenPanna, m.Jodi, m.ClosePanna}
	if err := applyMarketInput(m, in); err != nil {
		return nil, err
	}
	if m.IsDeclared && before != [3]string{m.OpenPanna, m.Jodi, m.ClosePanna} {
		settled, err := s.Repo.CountSettledBetsByMarket(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		if settled > 0 {
			return nil, ErrOutcomeLocked
		}
	}
	m.UpdatedBy = strings.TrimSpace(in.Actor)
	m.UpdatedAt = s.now()
	if err := s.Repo.UpdateMarket(ctx, m); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return m, nil
}

func (s *MarketService) Get(ctx context.Context, id string) (*MarketView, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("market service not configured")
	}
	m, err := s.Repo.GetMarketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, settlement.ErrMarketNotFound
	}
	return &MarketView{Market: *m, WindowState: m.WindowState(s.localNow())}, nil
}

// List returns markets newest first. activeOnly is the customer-facing view.
func (s *MarketService) List(ctx context.Context, activeOnly bool) ([]MarketView, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("market service not configured")
	}
	key := cacheKeyMarketsAll
	if activeOnly {
		key = cacheKeyMarketsActive
	}
	markets, err := cache.Load(ctx, s.Cache, key, func(ctx context.Context) ([]models.Market, error) {
		return s.Repo.ListMarkets(ctx, repository.ListMarketsParams{
			Limit:      500,
			ActiveOnly: activeOnly,
			OrderBy:    "created_at",
		})
	})
	if err != nil {
		return nil, err
	}
	now := s.localNow()
	out := make([]MarketView, 0, len(markets))
	for _, m := range markets {
		out = append(out, MarketView{Market: m, WindowState: m.WindowState(now)})
	}
	return out, nil
}

// DeclareAndSettle marks the market declared and queues its settlement sweep.
// It returns as soon as the flag is flipped; the sweep runs in the background.
func (s *MarketService) DeclareAndSettle(ctx context.Context, id string) (*models.Market, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("market service not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, settlement.ErrMarketNotFound
	}
	won, err := s.Repo.DeclareMarket(ctx, id, s.now())
	if err != nil {
		return nil, fmt.Errorf("declare market: %w", err)
	}
	if !won {
		m, err := s.Repo.GetMarketByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, settlement.ErrMarketNotFound
		}
		return m, settlement.ErrAlreadyDeclared
	}
	s.invalidate(ctx)
	s.enqueue(ctx, id, models.RunTriggerDeclare)

	m, err := s.Repo.GetMarketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, settlement.ErrMarketNotFound
	}
	return m, nil
}

// Resettle queues another sweep of an already declared market.
func (s *MarketService) Resettle(ctx context.Context, id string) error {
	if s == nil || s.Repo == nil || s.Queue == nil {
		return errors.New("market service not configured")
	}
	m, err := s.Repo.GetMarketByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return settlement.ErrMarketNotFound
	}
	if !m.IsDeclared {
		return settlement.ErrNotDeclared
	}
	return s.Queue.Submit(m.ID, models.RunTriggerManual)
}

func (s *MarketService) ListRuns(ctx context.Context, marketID string, limit int) ([]models.SettlementRun, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("market service not configured")
	}
	id := strings.TrimSpace(marketID)
	return s.Repo.ListSettlementRuns(ctx, repository.ListSettlementRunsParams{
		Limit:    limit,
		MarketID: &id,
	})
}

// enqueue hands the sweep to the queue. A rejected job is not fatal: the
// market stays declared with Pending bets and the reconciler resubmits it.
func (s *MarketService) enqueue(ctx context.Context, id, trigger string) {
	if s.Queue == nil {
		s.logWarn("settlement queue missing", errors.New("no queue"), zap.String("market_id", id))
		return
	}
	err := s.Queue.Submit(id, trigger)
	if err == nil || errors.Is(err, settlement.ErrSweepInFlight) {
		return
	}
	s.logWarn("settlement enqueue failed", err, zap.String("market_id", id))
	notify.Emit(ctx, s.Sink, notify.Event{
		Action: "settlement_enqueue_failed",
		Level:  notify.LevelWarn,
		Details: map[string]any{
			"market_id": id,
			"trigger":   trigger,
			"error":     err.Error(),
		},
	})
}

func (s *MarketService) invalidate(ctx context.Context) {
	s.Cache.Invalidate(ctx, cacheKeyMarketsAll, cacheKeyMarketsActive)
}

func (s *MarketService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *MarketService) localNow() time.Time {
	if s.Location == nil {
		return s.now()
	}
	return s.now().In(s.Location)
}

func (s *MarketService) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}

func applyMarketInput(m *models.Market, in MarketInput) error {
	if name := strings.TrimSpace(in.Name); name != "" {
		m.Name = name
	}
	if m.Name == "" {
		return fmt.Errorf("%w: market name is required", ErrInvalidInput)
	}
	if !in.StartAt.IsZero() {
		m.StartAt = in.StartAt.UTC()
	}
	if !in.EndAt.IsZero() {
		m.EndAt = in.EndAt.UTC()
	}
	if m.StartAt.IsZero() || m.EndAt.IsZero() {
		return fmt.Errorf("%w: start and end time are required", ErrInvalidInput)
	}
	if !m.EndAt.After(m.StartAt) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if err := setResultField(&m.OpenPanna, in.OpenPanna, models.PlaceholderPanna, "open panna"); err != nil {
		return err
	}
	if err := setResultField(&m.Jodi, in.Jodi, models.PlaceholderJodi, "jodi"); err != nil {
		return err
	}
	return setResultField(&m.ClosePanna, in.ClosePanna, models.PlaceholderPanna, "close panna")
}

// setResultField accepts either the placeholder or a digit string of the placeholder's length.
func setResultField(dst *string, v *string, placeholder, field string) error {
	if v == nil {
		return nil
	}
	val := strings.TrimSpace(*v)
	if val == "" {
		val = placeholder
	}
	if val != placeholder {
		if len(val) != len(placeholder) || strings.Trim(val, "0123456789") != "" {
			return fmt.Errorf("%w: %s must be %d digits", ErrInvalidInput, field, len(placeholder))
		}
	}
	*dst = val
	return nil
}
