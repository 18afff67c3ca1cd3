package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/ports"
)

type loggingAdapter[C any] struct {
	passthrough[C]
	logger *slog.Logger
}

// Logging logs every adapter call at debug level and failures at warn level.
// Conflicts and duplicate creates are expected outcomes and stay at debug.
func Logging[C any](logger *slog.Logger) Middleware[C] {
	return func(next ports.Adapter[C]) ports.Adapter[C] {
		return &loggingAdapter[C]{passthrough: passthrough[C]{next: next}, logger: logger}
	}
}

func (l *loggingAdapter[C]) Load(ctx context.Context, id string) (domain.Snapshot[C], bool, error) {
	start := time.Now()
	snap, found, err := l.next.Load(ctx, id)
	l.log(ctx, "load", id, start, err, "found", found, "version", snap.Version)
	return snap, found, err
}

func (l *loggingAdapter[C]) Create(ctx context.Context, id, state string, c C) (domain.Snapshot[C], error) {
	start := time.Now()
	snap, err := l.next.Create(ctx, id, state, c)
	l.log(ctx, "create", id, start, err, "state", state)
	return snap, err
}

func (l *loggingAdapter[C]) Save(ctx context.Context, snap domain.Snapshot[C]) error {
	start := time.Now()
	err := l.next.Save(ctx, snap)
	l.log(ctx, "save", snap.ID, start, err, "state", snap.State, "version", snap.Version)
	return err
}

func (l *loggingAdapter[C]) log(ctx context.Context, op, id string, start time.Time, err error, args ...any) {
	attrs := append([]any{"op", op, "actor_id", id, "duration", time.Since(start)}, args...)
	switch {
	case err == nil:
		l.logger.DebugContext(ctx, "adapter call", attrs...)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrSnapshotExists):
		l.logger.DebugContext(ctx, "adapter call rejected", append(attrs, "error", err)...)
	default:
		l.logger.WarnContext(ctx, "adapter call failed", append(attrs, "error", err)...)
	}
}
