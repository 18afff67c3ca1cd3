package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/durafsm/internal/runtime"
	"github.com/aretw0/durafsm/pkg/domain"
)

type job struct {
	Attempts int
	Result   string
}

var errFlaky = errors.New("flaky")

func newEngine(t *testing.T, entry domain.EntryFunc[job], onError string, opts ...runtime.EngineOption[job]) *runtime.Engine[job] {
	t.Helper()
	if entry == nil {
		entry = func(ctx context.Context, j job, payload any) (job, error) { return j, nil }
	}
	def, err := domain.NewDefinition(domain.Config[job]{
		Name:    "jobs",
		Initial: "idle",
		States: map[string]domain.StateNode[job]{
			"idle":    {On: map[string]string{"run": "running", "park": "parked"}},
			"running": {Entry: entry, OnSuccess: "done", OnError: onError},
			"parked":  {On: map[string]string{"run": "running"}},
			"done":    {},
			"failed":  {On: map[string]string{"retry": "running"}},
		},
	})
	require.NoError(t, err)
	return runtime.NewEngine(def, opts...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestResolve_PlainTransition(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	e := newEngine(t, nil, "", runtime.WithClock[job](fixedClock(t0.Add(time.Second))))
	snap := domain.NewSnapshot("j1", "idle", job{}, t0)

	out, err := e.Resolve(context.Background(), snap, "park", nil)
	require.NoError(t, err)
	assert.True(t, out.Handled)
	assert.Equal(t, "parked", out.Target)
	assert.Equal(t, "parked", out.Next.State)
	assert.Equal(t, int64(2), out.Next.Version)
	assert.Equal(t, t0, out.Next.CreatedAt)
	assert.Equal(t, t0.Add(time.Second), out.Next.UpdatedAt)
	assert.Zero(t, out.EntryDuration)
}

func TestResolve_IgnoredEvent(t *testing.T) {
	var ignored *domain.IgnoredEvent
	hooks := domain.Hooks{OnIgnored: func(ctx context.Context, e *domain.IgnoredEvent) { ignored = e }}
	e := newEngine(t, nil, "", runtime.WithHooks[job](hooks))
	snap := domain.NewSnapshot("j1", "done", job{}, time.Now())

	out, err := e.Resolve(context.Background(), snap, "run", nil)
	require.NoError(t, err)
	assert.False(t, out.Handled)
	assert.Equal(t, snap, out.Next)

	require.NotNil(t, ignored)
	assert.Equal(t, "done", ignored.State)
	assert.Equal(t, "run", ignored.Event)
	assert.Equal(t, "jobs", ignored.Machine)
}

func TestResolve_EntrySuccess(t *testing.T) {
	entry := func(ctx context.Context, j job, payload any) (job, error) {
		j.Attempts++
		j.Result = payload.(string)
		return j, nil
	}
	e := newEngine(t, entry, "failed")
	snap := domain.NewSnapshot("j1", "idle", job{}, time.Now())

	out, err := e.Resolve(context.Background(), snap, "run", "ok")
	require.NoError(t, err)
	assert.Equal(t, "running", out.Target)
	assert.Equal(t, "done", out.Next.State, "the actor rests in onSuccess, never in the entry state")
	assert.Equal(t, job{Attempts: 1, Result: "ok"}, out.Next.Context)
	assert.NoError(t, out.EntryErr)
}

func TestResolve_EntryFailureRoutesToOnError(t *testing.T) {
	var entryErr *domain.EntryErrorEvent
	hooks := domain.Hooks{OnEntryError: func(ctx context.Context, e *domain.EntryErrorEvent) { entryErr = e }}
	entry := func(ctx context.Context, j job, payload any) (job, error) {
		j.Attempts = 99
		return j, errFlaky
	}
	e := newEngine(t, entry, "failed", runtime.WithHooks[job](hooks))
	snap := domain.NewSnapshot("j1", "idle", job{Attempts: 1}, time.Now())

	out, err := e.Resolve(context.Background(), snap, "run", nil)
	require.NoError(t, err)
	assert.True(t, out.Handled)
	assert.Equal(t, "failed", out.Next.State)
	assert.Equal(t, job{Attempts: 1}, out.Next.Context, "a failed entry keeps the pre-entry context")
	assert.ErrorIs(t, out.EntryErr, errFlaky)

	require.NotNil(t, entryErr)
	assert.True(t, entryErr.Handled)
	assert.Equal(t, "running", entryErr.State)
}

func TestResolve_EntryFailureWithoutOnError(t *testing.T) {
	entry := func(ctx context.Context, j job, payload any) (job, error) { return j, errFlaky }
	e := newEngine(t, entry, "")
	snap := domain.NewSnapshot("j1", "idle", job{}, time.Now())

	_, err := e.Resolve(context.Background(), snap, "run", nil)
	var entryErr *domain.EntryError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, "running", entryErr.State)
	assert.Equal(t, "run", entryErr.Event)
	assert.ErrorIs(t, err, errFlaky)
}

func TestResolve_CancelledEntryIsNotRouted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	entry := func(ctx context.Context, j job, payload any) (job, error) {
		cancel()
		return j, ctx.Err()
	}
	e := newEngine(t, entry, "failed")
	snap := domain.NewSnapshot("j1", "idle", job{}, time.Now())

	_, err := e.Resolve(ctx, snap, "run", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_UnknownState(t *testing.T) {
	e := newEngine(t, nil, "")
	snap := domain.NewSnapshot("j1", "vanished", job{}, time.Now())

	_, err := e.Resolve(context.Background(), snap, "run", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownState)
}

func TestResolve_FailedEntryCannotMutateClonerContext(t *testing.T) {
	def, err := domain.NewDefinition(domain.Config[domain.Map]{
		Initial: "idle",
		States: map[string]domain.StateNode[domain.Map]{
			"idle": {On: map[string]string{"run": "running"}},
			"running": {
				Entry: func(ctx context.Context, m domain.Map, payload any) (domain.Map, error) {
					m["attempts"] = 99
					return m, errFlaky
				},
				OnSuccess: "done",
				OnError:   "failed",
			},
			"done":   {},
			"failed": {},
		},
	})
	require.NoError(t, err)
	e := runtime.NewEngine(def)
	snap := domain.NewSnapshot("m1", "idle", domain.Map{"attempts": 1}, time.Now())

	out, err := e.Resolve(context.Background(), snap, "run", nil)
	require.NoError(t, err)
	assert.Equal(t, "failed", out.Next.State)
	assert.Equal(t, domain.Map{"attempts": 1}, out.Next.Context)
	assert.Equal(t, domain.Map{"attempts": 1}, snap.Context)
}
