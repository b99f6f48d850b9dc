package settlement

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"matka/internal/notify"
)

// Runner executes one sweep. *Sweeper is the production implementation.
type Runner interface {
	Sweep(ctx context.Context, marketID string, trigger string) (Report, error)
}

type Job struct {
	MarketID string
	Trigger  string
}

// Dispatcher runs sweeps on a fixed pool of workers fed by a bounded queue.
// At most one job per market is queued or running at a time.
type Dispatcher struct {
	Runner     Runner
	Logger     *zap.Logger
	Sink       notify.Sink
	Workers    int
	JobTimeout time.Duration

	jobs     chan Job
	inflight sync.Map
}

func NewDispatcher(r Runner, workers, queueSize int, logger *zap.Logger, sink notify.Sink) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		Runner:  r,
		Logger:  logger,
		Sink:    sink,
		Workers: workers,
		jobs:    make(chan Job, queueSize),
	}
}

// Submit enqueues a sweep without waiting for it.
func (d *Dispatcher) Submit(marketID, trigger string) error {
	if d == nil || d.jobs == nil {
		return fmt.Errorf("dispatcher not configured")
	}
	marketID = strings.TrimSpace(marketID)
	if marketID == "" {
		return ErrMarketNotFound
	}
	if _, loaded := d.inflight.LoadOrStore(marketID, trigger); loaded {
		return ErrSweepInFlight
	}
	select {
	case d.jobs <- Job{MarketID: marketID, Trigger: trigger}:
		return nil
	default:
		d.inflight.Delete(marketID)
		return ErrQueueFull
	}
}

// InFlight reports whether a sweep for marketID is queued or running.
func (d *Dispatcher) InFlight(marketID string) bool {
	if d == nil {
		return false
	}
	_, ok := d.inflight.Load(strings.TrimSpace(marketID))
	return ok
}

// Run starts the workers and blocks until ctx is done. A sweep already in
// progress is allowed to finish; queued jobs are left for reconciliation.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d == nil || d.Runner == nil || d.jobs == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.Workers; i++ {
		g.Go(func() error {
			return d.work(gctx)
		})
	}
	return g.Wait()
}

func (d *Dispatcher) work(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-d.jobs:
			d.process(ctx, job)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, job Job) {
	defer d.inflight.Delete(job.MarketID)

	jctx := context.WithoutCancel(ctx)
	if d.JobTimeout > 0 {
		var cancel context.CancelFunc
		jctx, cancel = context.WithTimeout(jctx, d.JobTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			if d.Logger != nil {
				d.Logger.Error("settlement job panicked",
					zap.String("market_id", job.MarketID),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
			notify.Emit(jctx, d.Sink, notify.Event{
				Action: "settlement_panic",
				Level:  notify.LevelError,
				Details: map[string]any{
					"market_id": job.MarketID,
					"trigger":   job.Trigger,
					"panic":     fmt.Sprint(r),
				},
			})
		}
	}()

	start := time.Now()
	rep, err := d.Runner.Sweep(jctx, job.MarketID, job.Trigger)
	if d.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("market_id", job.MarketID),
		zap.String("trigger", job.Trigger),
		zap.Int("settled", rep.Settled),
		zap.Int("unresolved", rep.Unresolved),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		d.Logger.Warn("settlement job failed", append(fields, zap.Error(err))...)
		return
	}
	d.Logger.Debug("settlement job done", fields...)
}
