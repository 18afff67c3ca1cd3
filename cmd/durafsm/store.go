package main

import (
	"context"
	"fmt"

	"github.com/aretw0/durafsm"
	"github.com/aretw0/durafsm/internal/config"
	"github.com/aretw0/durafsm/pkg/adapters/file"
	"github.com/aretw0/durafsm/pkg/adapters/memory"
	"github.com/aretw0/durafsm/pkg/adapters/redis"
	"github.com/aretw0/durafsm/pkg/adapters/sqlstore"
	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/dsl"
	"github.com/aretw0/durafsm/pkg/persistence/middleware"
	"github.com/aretw0/durafsm/pkg/ports"
	"github.com/aretw0/durafsm/pkg/registry"
)

// openStore builds the configured adapter. The returned func releases its connections.
func openStore(ctx context.Context) (ports.Adapter[domain.Map], func() error, error) {
	c, err := cfg.SnapshotCodec()
	if err != nil {
		return nil, nil, err
	}

	var (
		adapter ports.Adapter[domain.Map]
		closer  = func() error { return nil }
	)

	switch cfg.Store {
	case config.StoreFile:
		adapter = file.New(cfg.Dir, file.WithCodec[domain.Map](c))
	case config.StoreMemory:
		adapter = memory.NewStore[domain.Map]()
	case config.StoreRedis:
		store, err := redis.NewFromURL(ctx, cfg.RedisURL,
			redis.WithPrefix[domain.Map](cfg.RedisPrefix),
			redis.WithTTL[domain.Map](cfg.RedisTTL),
			redis.WithCodec[domain.Map](c),
		)
		if err != nil {
			return nil, nil, err
		}
		adapter, closer = store, store.Close
	case config.StoreSQL:
		store, err := sqlstore.Open(ctx, cfg.DatabaseURL,
			sqlstore.WithNamespace[domain.Map](cfg.Namespace),
			sqlstore.WithCodec[domain.Map](c),
			sqlstore.WithLogger[domain.Map](logger),
		)
		if err != nil {
			return nil, nil, err
		}
		adapter, closer = store, store.Close
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	mws := []middleware.Middleware[domain.Map]{middleware.Logging[domain.Map](logger)}
	if cfg.Trace {
		mws = append(mws, middleware.Tracing[domain.Map](nil))
	}
	return middleware.Chain(adapter, mws...), closer, nil
}

// loadMachine parses the configured YAML definition with the builtin entries.
func loadMachine() (*domain.Definition[domain.Map], error) {
	if cfg.Machine == "" {
		return nil, fmt.Errorf("no machine definition: pass --machine or set DURAFSM_MACHINE")
	}
	return dsl.LoadFile(cfg.Machine, registry.NewMap())
}

// bindMachine loads the definition and binds it to the configured store.
func bindMachine(ctx context.Context, opts ...durafsm.Option) (*durafsm.Machine[domain.Map], func() error, error) {
	def, err := loadMachine()
	if err != nil {
		return nil, nil, err
	}
	adapter, closer, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]durafsm.Option{durafsm.WithLogger(logger), durafsm.WithLocalLocking()}, opts...)
	return durafsm.Bind(def, adapter, opts...), closer, nil
}
