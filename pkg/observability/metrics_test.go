package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/durafsm/internal/logging"
	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/observability"
)

func base(event string) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Machine: "door", ActorID: "d1", Event: event}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnTransition(ctx, &domain.TransitionEvent{EventBase: base("open"), From: "closed", Target: "opening", To: "open", Entry: 20 * time.Millisecond})
	hooks.OnTransition(ctx, &domain.TransitionEvent{EventBase: base("open"), From: "closed", Target: "opening", To: "open", Entry: 10 * time.Millisecond})
	hooks.OnIgnored(ctx, &domain.IgnoredEvent{EventBase: base("kick"), State: "open"})
	hooks.OnEntryError(ctx, &domain.EntryErrorEvent{EventBase: base("open"), State: "opening", Err: errors.New("jammed"), Handled: true})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("door", "open", "closed", "open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ignored.WithLabelValues("door", "kick", "open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntryErrors.WithLabelValues("door", "opening", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.EntryDuration))
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LoggingHooks(logging.NewWithWriter(&buf, slog.LevelInfo, false))
	ctx := context.Background()

	hooks.OnIgnored(ctx, &domain.IgnoredEvent{EventBase: base("kick"), State: "open"})
	assert.Empty(t, buf.String(), "ignored events are debug only")

	hooks.OnEntryError(ctx, &domain.EntryErrorEvent{EventBase: base("open"), State: "opening", Err: errors.New("jammed")})
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "err=jammed")
}
