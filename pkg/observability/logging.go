package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/durafsm/pkg/domain"
)

// LoggingHooks writes lifecycle events to logger.
// Transitions are logged at info, ignored events at debug and entry failures at warn.
func LoggingHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition",
				"machine", e.Machine,
				"actor_id", e.ActorID,
				"event", e.Event,
				"from", e.From,
				"to", e.To,
				"version", e.Version,
			)
		},
		OnIgnored: func(ctx context.Context, e *domain.IgnoredEvent) {
			logger.DebugContext(ctx, "event ignored",
				"machine", e.Machine,
				"actor_id", e.ActorID,
				"event", e.Event,
				"state", e.State,
			)
		},
		OnEntryError: func(ctx context.Context, e *domain.EntryErrorEvent) {
			logger.WarnContext(ctx, "entry failed",
				"machine", e.Machine,
				"actor_id", e.ActorID,
				"state", e.State,
				"handled", e.Handled,
				"error", e.Err,
			)
		},
	}
}
