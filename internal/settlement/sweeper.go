package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"matka/internal/models"
	"matka/internal/notify"
	"matka/internal/repository"
)

// Report summarises one sweep.
type Report struct {
	MarketID       string
	RunID          uint64
	Outcome        string
	Pending        int
	Settled        int
	Won            int
	Lost           int
	Unresolved     int
	UnresolvedBets []Unresolved
	Deltas         map[string]decimal.Decimal
}

// Sweeper settles the pending bets of one declared market. A sweep only ever
// touches bets still in Pending, so running it again is safe.
type Sweeper struct {
	Repo   repository.SettlementRepository
	Logger *zap.Logger
	Sink   notify.Sink
	Now    func() time.Time
}

func (s *Sweeper) Sweep(ctx context.Context, marketID string, trigger string) (Report, error) {
	if s == nil || s.Repo == nil {
		return Report{MarketID: marketID}, errors.New("sweeper not configured")
	}
	run := s.startRun(ctx, marketID, trigger)
	rep, err := s.sweep(ctx, marketID)
	if run != nil {
		rep.RunID = run.ID
	}
	s.finishRun(ctx, run, rep, err)
	s.report(ctx, trigger, rep, err)
	return rep, err
}

func (s *Sweeper) sweep(ctx context.Context, marketID string) (Report, error) {
	rep := Report{MarketID: marketID}

	market, err := s.Repo.GetMarketByID(ctx, marketID)
	if err != nil {
		return rep, fmt.Errorf("load market: %w", err)
	}
	if market == nil {
		return rep, ErrMarketNotFound
	}
	if !market.IsDeclared {
		return rep, ErrNotDeclared
	}
	outcome, err := Decode(market.OpenPanna, market.Jodi, market.ClosePanna)
	if err != nil {
		return rep, err
	}
	rep.Outcome = outcome.String()

	bets, err := s.Repo.ListPendingBetsByMarket(ctx, marketID)
	if err != nil {
		return rep, fmt.Errorf("list pending bets: %w", err)
	}
	rep.Pending = len(bets)
	if len(bets) == 0 {
		return rep, nil
	}

	ratingIDs := make([]string, 0, len(bets))
	seen := map[string]struct{}{}
	for _, b := range bets {
		if _, ok := seen[b.RatingID]; ok {
			continue
		}
		seen[b.RatingID] = struct{}{}
		ratingIDs = append(ratingIDs, b.RatingID)
	}
	ratings, err := s.Repo.ListRatingsByIDs(ctx, ratingIDs)
	if err != nil {
		return rep, fmt.Errorf("list ratings: %w", err)
	}
	byID := make(map[string]models.Rating, len(ratings))
	for _, r := range ratings {
		byID[r.ID] = r
	}

	plan := BuildPlan(outcome, bets, byID)
	rep.UnresolvedBets = plan.Unresolved
	rep.Unresolved = len(plan.Unresolved)
	for _, id := range plan.UnknownType {
		s.logWarn("bet settled as loss: unknown rating type", ErrUnknownRatingType,
			zap.String("market_id", marketID), zap.String("bet_id", id))
	}
	if len(plan.Decisions) == 0 {
		return rep, nil
	}

	now := s.now()
	var won, lost int
	var deltas map[string]decimal.Decimal
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		won, lost = 0, 0
		moved := map[string]struct{}{}
		for _, result := range []string{models.BetWin, models.BetLoss} {
			ids := plan.IDs(result)
			if len(ids) == 0 {
				continue
			}
			got, err := s.Repo.MarkBetsSettledTx(ctx, tx, ids, result, rep.Outcome, now)
			if err != nil {
				return fmt.Errorf("mark bets %s: %w", result, err)
			}
			for _, id := range got {
				moved[id] = struct{}{}
			}
			if result == models.BetWin {
				won = len(got)
			} else {
				lost = len(got)
			}
		}
		deltas = plan.Deltas(moved)
		if err := s.Repo.IncrementBalancesTx(ctx, tx, deltas, now); err != nil {
			return fmt.Errorf("increment balances: %w", err)
		}
		return nil
	})
	if err != nil {
		return rep, err
	}
	rep.Won = won
	rep.Lost = lost
	rep.Settled = won + lost
	rep.Deltas = deltas
	return rep, nil
}

func (s *Sweeper) startRun(ctx context.Context, marketID, trigger string) *models.SettlementRun {
	run := &models.SettlementRun{
		MarketID:  marketID,
		Trigger:   trigger,
		Status:    models.RunStatusRunning,
		StartedAt: s.now(),
	}
	if err := s.Repo.InsertSettlementRun(ctx, run); err != nil {
		s.logWarn("settlement run insert failed", err, zap.String("market_id", marketID))
		return nil
	}
	return run
}

func (s *Sweeper) finishRun(ctx context.Context, run *models.SettlementRun, rep Report, sweepErr error) {
	if run == nil {
		return
	}
	finished := s.now()
	run.Status = runStatus(rep, sweepErr)
	run.Outcome = rep.Outcome
	run.Pending = rep.Pending
	run.Settled = rep.Settled
	run.Won = rep.Won
	run.Lost = rep.Lost
	run.Unresolved = rep.Unresolved
	run.Customers = len(rep.Deltas)
	run.FinishedAt = &finished
	if sweepErr != nil {
		run.Error = sweepErr.Error()
	}
	deltas := make(map[string]string, len(rep.Deltas))
	for k, v := range rep.Deltas {
		deltas[k] = v.String()
	}
	if raw, err := json.Marshal(map[string]any{
		"unresolved": rep.UnresolvedBets,
		"deltas":     deltas,
	}); err == nil {
		run.Details = datatypes.JSON(raw)
	}
	if err := s.Repo.UpdateSettlementRun(ctx, run); err != nil {
		s.logWarn("settlement run update failed", err, zap.String("market_id", run.MarketID))
	}
}

func (s *Sweeper) report(ctx context.Context, trigger string, rep Report, sweepErr error) {
	details := map[string]any{
		"market_id":  rep.MarketID,
		"trigger":    trigger,
		"run_id":     rep.RunID,
		"outcome":    rep.Outcome,
		"pending":    rep.Pending,
		"settled":    rep.Settled,
		"unresolved": rep.Unresolved,
	}
	switch {
	case errors.Is(sweepErr, ErrMalformedOutcome):
		details["error"] = sweepErr.Error()
		notify.Emit(ctx, s.Sink, notify.Event{Action: "settlement_aborted", Level: notify.LevelError, Details: details})
	case sweepErr != nil:
		details["error"] = sweepErr.Error()
		notify.Emit(ctx, s.Sink, notify.Event{Action: "settlement_failed", Level: notify.LevelError, Details: details})
	case rep.Unresolved > 0:
		details["unresolved_bets"] = rep.UnresolvedBets
		notify.Emit(ctx, s.Sink, notify.Event{Action: "settlement_unresolved_bets", Level: notify.LevelWarn, Details: details})
	default:
		if s.Logger != nil {
			s.Logger.Info("settlement completed",
				zap.String("market_id", rep.MarketID),
				zap.String("trigger", trigger),
				zap.Int("settled", rep.Settled),
				zap.Int("won", rep.Won),
				zap.Int("lost", rep.Lost),
				zap.Int("customers", len(rep.Deltas)),
			)
		}
	}
}

func runStatus(rep Report, err error) string {
	switch {
	case errors.Is(err, ErrMalformedOutcome):
		return models.RunStatusAborted
	case err != nil:
		return models.RunStatusFailed
	case rep.Unresolved > 0:
		return models.RunStatusPartial
	default:
		return models.RunStatusSucceeded
	}
}

func (s *Sweeper) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Sweeper) logWarn(msg string, err error, fields ...zap.Field) {
	if s == nil || s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
