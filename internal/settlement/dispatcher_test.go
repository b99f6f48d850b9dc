package settlement

import (
	"context"
	"errors"
	"testing"
	"time"
)

type blockingRunner struct {
	started chan string
	release chan struct{}
}

func (r *blockingRunner) Sweep(ctx context.Context, marketID string, trigger string) (Report, error) {
	r.started <- marketID
	<-r.release
	return Report{MarketID: marketID}, nil
}

type panickyRunner struct{ done chan struct{} }

func (r *panickyRunner) Sweep(ctx context.Context, marketID string, trigger string) (Report, error) {
	defer close(r.done)
	panic("boom")
}

func TestDispatcher_RunsSubmittedJob(t *testing.T) {
	runner := &blockingRunner{started: make(chan string, 1), release: make(chan struct{})}
	d := NewDispatcher(runner, 1, 4, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	if err := d.Submit("m1", "declare"); err != nil {
		t.Fatalf("submit err=%v", err)
	}
	select {
	case got := <-runner.started:
		if got != "m1" {
			t.Fatalf("market=%s want=m1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not start")
	}
	if !d.InFlight("m1") {
		t.Fatalf("m1 should be in flight")
	}
	if err := d.Submit("m1", "reconcile"); !errors.Is(err, ErrSweepInFlight) {
		t.Fatalf("err=%v want ErrSweepInFlight", err)
	}
	close(runner.release)

	deadline := time.Now().Add(2 * time.Second)
	for d.InFlight("m1") {
		if time.Now().After(deadline) {
			t.Fatalf("m1 still in flight")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcher_QueueFull(t *testing.T) {
	d := NewDispatcher(&blockingRunner{}, 1, 1, nil, nil)
	if err := d.Submit("m1", "declare"); err != nil {
		t.Fatalf("err=%v", err)
	}
	if err := d.Submit("m2", "declare"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err=%v want ErrQueueFull", err)
	}
	if d.InFlight("m2") {
		t.Fatalf("rejected job must not stay in flight")
	}
}

func TestDispatcher_RecoversPanic(t *testing.T) {
	runner := &panickyRunner{done: make(chan struct{})}
	sink := &recordingSink{}
	d := NewDispatcher(runner, 1, 1, nil, sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	if err := d.Submit("m1", "declare"); err != nil {
		t.Fatalf("err=%v", err)
	}
	<-runner.done
	deadline := time.Now().Add(2 * time.Second)
	for d.InFlight("m1") {
		if time.Now().After(deadline) {
			t.Fatalf("m1 still in flight after panic")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if acts := sink.actions(); len(acts) != 1 || acts[0] != "settlement_panic" {
		t.Fatalf("notifications=%v", acts)
	}
}
