package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/persistence/codec"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "durafsm:"

// noExpiry is the index score used when no TTL is configured (2100-01-01).
const noExpiry = 4102444800

// createScript indexes the actor and then sets its key, or does nothing if the key exists.
// A failed index update leaves no key behind.
var createScript = backend.NewScript(`
	if redis.call("exists", KEYS[1]) == 1 then
		return 0
	end
	redis.call("zadd", KEYS[2], ARGV[3], ARGV[4])
	if tonumber(ARGV[2]) > 0 then
		redis.call("set", KEYS[1], ARGV[1], "PX", ARGV[2])
	else
		redis.call("set", KEYS[1], ARGV[1])
	end
	return 1
`)

// Store implements ports.Adapter using Redis.
//
// Each actor is one string key holding the encoded snapshot. Create runs SET NX and the
// index update as a single script,
// Save on WATCH/MULTI so that a concurrent writer aborts the transaction.
// A sorted set indexes actor ids by expiry for List.
type Store[C any] struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	codec  codec.Codec
	now    func() time.Time
}

// Option configures the Store.
type Option[C any] func(*Store[C])

// WithTTL sets the expiration of actor keys. It is refreshed on every save.
func WithTTL[C any](ttl time.Duration) Option[C] {
	return func(s *Store[C]) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix[C any](prefix string) Option[C] {
	return func(s *Store[C]) {
		s.prefix = prefix
	}
}

// WithCodec sets the snapshot encoding. Defaults to codec.JSON.
func WithCodec[C any](c codec.Codec) Option[C] {
	return func(s *Store[C]) {
		s.codec = c
	}
}

// WithClock overrides the time source used for snapshot timestamps and index expiry scores.
func WithClock[C any](now func() time.Time) Option[C] {
	return func(s *Store[C]) {
		s.now = now
	}
}

// New creates a new Redis store with options.
func New[C any](address, password string, db int, opts ...Option[C]) *Store[C] {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromURL creates a store from a redis:// or rediss:// URL and checks connectivity.
func NewFromURL[C any](ctx context.Context, url string, opts ...Option[C]) (*Store[C], error) {
	connOpt, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := backend.NewClient(connOpt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return NewFromClient(client, opts...), nil
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient[C any](client *backend.Client, opts ...Option[C]) *Store[C] {
	store := &Store[C]{
		client: client,
		prefix: DefaultPrefix,
		codec:  codec.JSON,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client returns the underlying redis client.
func (s *Store[C]) Client() *backend.Client {
	return s.client
}

func (s *Store[C]) key(id string) string {
	return s.prefix + "actor:" + id
}

func (s *Store[C]) indexKey() string {
	return s.prefix + "index"
}

func (s *Store[C]) score() float64 {
	if s.ttl == 0 {
		return noExpiry
	}
	return float64(s.now().Add(s.ttl).Unix())
}

// Load retrieves the snapshot from Redis.
func (s *Store[C]) Load(ctx context.Context, id string) (domain.Snapshot[C], bool, error) {
	return s.get(ctx, s.client.Get, id)
}

func (s *Store[C]) get(ctx context.Context, get func(context.Context, string) *backend.StringCmd, id string) (domain.Snapshot[C], bool, error) {
	var snap domain.Snapshot[C]

	data, err := get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return snap, false, nil
		}
		return snap, false, fmt.Errorf("failed to get from redis: %w", err)
	}

	if err := s.codec.Unmarshal(data, &snap); err != nil {
		return snap, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

// Create writes the first snapshot with SET NX and indexes it atomically.
func (s *Store[C]) Create(ctx context.Context, id, state string, c C) (domain.Snapshot[C], error) {
	snap := domain.NewSnapshot(id, state, c, s.now())
	data, err := s.codec.Marshal(snap)
	if err != nil {
		return domain.Snapshot[C]{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	created, err := createScript.Run(ctx, s.client,
		[]string{s.key(id), s.indexKey()},
		data, s.ttl.Milliseconds(), s.score(), id,
	).Int()
	if err != nil {
		return domain.Snapshot[C]{}, fmt.Errorf("failed to create in redis: %w", err)
	}
	if created == 0 {
		return domain.Snapshot[C]{}, domain.ErrSnapshotExists
	}
	return snap, nil
}

// Save replaces the stored snapshot if its version is snap.Version-1.
func (s *Store[C]) Save(ctx context.Context, snap domain.Snapshot[C]) error {
	data, err := s.codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := s.key(snap.ID)
	expected := snap.Version - 1

	err = s.client.Watch(ctx, func(tx *backend.Tx) error {
		current, found, err := s.get(ctx, tx.Get, snap.ID)
		if err != nil {
			return err
		}
		if !found || current.Version != expected {
			return &domain.ConflictError{ID: snap.ID, Expected: expected, Actual: current.Version}
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: s.score(), Member: snap.ID})
			return nil
		})
		return err
	}, key)

	if errors.Is(err, backend.TxFailedErr) {
		// Another writer touched the key between WATCH and EXEC.
		current, _, loadErr := s.Load(ctx, snap.ID)
		if loadErr != nil {
			return fmt.Errorf("failed to read conflicting snapshot: %w", loadErr)
		}
		return &domain.ConflictError{ID: snap.ID, Expected: expected, Actual: current.Version}
	}
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Delete removes the actor.
func (s *Store[C]) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the ids of live actors. Expired entries are pruned from the index lazily.
func (s *Store[C]) List(ctx context.Context) ([]string, error) {
	now := float64(s.now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired actors: %w", err)
	}

	// Lexical order, every member shares the no-expiry score when TTL is off.
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store[C]) Close() error {
	return s.client.Close()
}
