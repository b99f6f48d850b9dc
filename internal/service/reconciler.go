package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"matka/internal/models"
	"matka/internal/repository"
	"matka/internal/settlement"
)

// SettlementReconciler resubmits declared markets that still hold Pending
// bets. It covers sweeps that failed, were aborted and later corrected, or
// were never queued.
type SettlementReconciler struct {
	Repo   repository.MarketRepository
	Queue  SettlementQueue
	Flags  *SystemSettingsService
	Logger *zap.Logger
	Batch  int
}

type ReconcileResult struct {
	Candidates int
	Submitted  int
	Skipped    int
}

func (r *SettlementReconciler) RunIfEnabled(ctx context.Context) {
	if r == nil {
		return
	}
	if !r.Flags.IsEnabled(ctx, FeatureSettlementReconcile, true) {
		return
	}
	res, err := r.RunOnce(ctx)
	if err != nil {
		if r.Logger != nil && !errors.Is(err, context.Canceled) {
			r.Logger.Warn("settlement reconcile failed", zap.Error(err))
		}
		return
	}
	if r.Logger != nil && res.Candidates > 0 {
		r.Logger.Info("settlement reconcile",
			zap.Int("candidates", res.Candidates),
			zap.Int("submitted", res.Submitted),
			zap.Int("skipped", res.Skipped),
		)
	}
}

func (r *SettlementReconciler) RunOnce(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	if r == nil || r.Repo == nil || r.Queue == nil {
		return res, errors.New("reconciler not configured")
	}
	batch := r.Batch
	if batch <= 0 {
		batch = 100
	}
	ids, err := r.Repo.ListDeclaredMarketIDsWithPendingBets(ctx, batch)
	if err != nil {
		return res, err
	}
	res.Candidates = len(ids)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := r.Queue.Submit(id, models.RunTriggerReconcile)
		switch {
		case err == nil:
			res.Submitted++
		case errors.Is(err, settlement.ErrSweepInFlight):
			res.Skipped++
		case errors.Is(err, settlement.ErrQueueFull):
			// Remaining markets wait for the next pass.
			res.Skipped += len(ids) - res.Submitted - res.Skipped
			return res, nil
		default:
			return res, err
		}
	}
	return res, nil
}
