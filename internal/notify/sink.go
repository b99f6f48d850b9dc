package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Event is an operator-facing record of something the service did or failed to do.
type Event struct {
	Action  string         `json:"action"`
	Level   string         `json:"level"`
	Details map[string]any `json:"details"`
}

type Sink interface {
	Notify(ctx context.Context, ev Event) error
}

// LogSink writes events to zap.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Notify(_ context.Context, ev Event) error {
	if s.Logger == nil {
		return nil
	}
	fields := make([]zap.Field, 0, len(ev.Details)+1)
	fields = append(fields, zap.String("action", ev.Action))
	for k, v := range ev.Details {
		fields = append(fields, zap.Any(k, v))
	}
	switch ev.Level {
	case LevelError:
		s.Logger.Error("notify", fields...)
	case LevelWarn:
		s.Logger.Warn("notify", fields...)
	default:
		s.Logger.Info("notify", fields...)
	}
	return nil
}

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit delivers ev with a short, detached deadline so callers never block on a slow sink.
func Emit(ctx context.Context, s Sink, ev Event) {
	if s == nil {
		return
	}
	if ev.Details == nil {
		ev.Details = map[string]any{}
	}
	ctx2, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	_ = s.Notify(ctx2, ev)
}
