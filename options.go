package durafsm

import (
	"log/slog"
	"time"

	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/ports"
)

type options struct {
	logger       *slog.Logger
	hooks        domain.Hooks
	now          func() time.Time
	locker       ports.DistributedLocker
	localLocking bool
	lockTTL      time.Duration
	retries      int
}

// Option defines a functional option for configuring a bound Machine.
type Option func(*options)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHooks registers observability hooks. Calling it more than once chains the hooks.
func WithHooks(hooks domain.Hooks) Option {
	return func(o *options) {
		o.hooks = o.hooks.Merge(hooks)
	}
}

// WithClock overrides the time source used for UpdatedAt (useful in tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLocalLocking serializes CreateActor and Send per actor id within this process.
func WithLocalLocking() Option {
	return func(o *options) {
		o.localLocking = true
	}
}

// WithLocker serializes CreateActor and Send per actor id across processes.
// It implies WithLocalLocking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *options) {
		o.locker = locker
		o.localLocking = true
	}
}

// WithLockTTL sets the distributed lock TTL (default locking.DefaultTTL).
func WithLockTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.lockTTL = ttl
	}
}

// WithConflictRetries makes Machine.Send reload and retry up to n times when Save
// reports a version conflict. Entry functions run again on every retry.
// The default is 0: conflicts are surfaced to the caller.
func WithConflictRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}
