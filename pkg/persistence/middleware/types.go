package middleware

import (
	"context"
	"errors"

	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/ports"
)

// Middleware wraps an Adapter to add behavior.
type Middleware[C any] func(ports.Adapter[C]) ports.Adapter[C]

// Chain applies middlewares so that the first one is the outermost.
func Chain[C any](adapter ports.Adapter[C], mws ...Middleware[C]) ports.Adapter[C] {
	for i := len(mws) - 1; i >= 0; i-- {
		adapter = mws[i](adapter)
	}
	return adapter
}

// passthrough forwards the optional Lister and Deleter capabilities of next.
type passthrough[C any] struct {
	next ports.Adapter[C]
}

func (p passthrough[C]) Load(ctx context.Context, id string) (domain.Snapshot[C], bool, error) {
	return p.next.Load(ctx, id)
}

func (p passthrough[C]) Create(ctx context.Context, id, state string, c C) (domain.Snapshot[C], error) {
	return p.next.Create(ctx, id, state, c)
}

func (p passthrough[C]) Save(ctx context.Context, snap domain.Snapshot[C]) error {
	return p.next.Save(ctx, snap)
}

func (p passthrough[C]) List(ctx context.Context) ([]string, error) {
	lister, ok := p.next.(ports.Lister)
	if !ok {
		return nil, errors.ErrUnsupported
	}
	return lister.List(ctx)
}

func (p passthrough[C]) Delete(ctx context.Context, id string) error {
	deleter, ok := p.next.(ports.Deleter)
	if !ok {
		return errors.ErrUnsupported
	}
	return deleter.Delete(ctx, id)
}
