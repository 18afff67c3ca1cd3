package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/durafsm/internal/logging"
	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/persistence/codec"
)

// DefaultNamespace partitions the snapshot table when none is configured.
const DefaultNamespace = "default"

// Store implements ports.Adapter on PostgreSQL or SQLite.
//
// Snapshots live in one row each. Create is an INSERT ... ON CONFLICT DO NOTHING
// and Save an UPDATE guarded by the expected version, so both are atomic
// across processes sharing the database.
type Store[C any] struct {
	db        *sql.DB
	dialect   Dialect
	namespace string
	codec     codec.Codec
	now       func() time.Time
	logger    *slog.Logger
	owned     bool
}

// Option configures the Store.
type Option[C any] func(*Store[C])

// WithNamespace isolates machines sharing one table.
func WithNamespace[C any](ns string) Option[C] {
	return func(s *Store[C]) {
		s.namespace = ns
	}
}

// WithCodec sets the encoding of the context column. Defaults to codec.JSON.
func WithCodec[C any](c codec.Codec) Option[C] {
	return func(s *Store[C]) {
		s.codec = c
	}
}

// WithClock overrides the time source used by Create.
func WithClock[C any](now func() time.Time) Option[C] {
	return func(s *Store[C]) {
		s.now = now
	}
}

// WithLogger sets the logger used for migrations.
func WithLogger[C any](logger *slog.Logger) Option[C] {
	return func(s *Store[C]) {
		s.logger = logger
	}
}

// Open connects to databaseURL and applies migrations.
// The returned store owns the connection and closes it on Close.
func Open[C any](ctx context.Context, databaseURL string, opts ...Option[C]) (*Store[C], error) {
	db, dialect, err := OpenDB(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	s := New(db, dialect, opts...)
	s.owned = true

	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. Call Migrate before first use.
func New[C any](db *sql.DB, dialect Dialect, opts ...Option[C]) *Store[C] {
	s := &Store[C]{
		db:        db,
		dialect:   dialect,
		namespace: DefaultNamespace,
		codec:     codec.JSON,
		now:       time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate applies the schema.
func (s *Store[C]) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.db, s.dialect, s.logger)
}

// DB returns the underlying handle.
func (s *Store[C]) DB() *sql.DB {
	return s.db
}

// Load reads the snapshot row.
func (s *Store[C]) Load(ctx context.Context, id string) (domain.Snapshot[C], bool, error) {
	var (
		snap                 domain.Snapshot[C]
		encoded              string
		createdAt, updatedAt string
	)

	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT state, context, version, created_at, updated_at FROM fsm_snapshots WHERE namespace = ? AND id = ?`),
		s.namespace, id)
	if err := row.Scan(&snap.State, &encoded, &snap.Version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return snap, false, nil
		}
		return snap, false, fmt.Errorf("failed to query snapshot: %w", err)
	}

	snap.ID = id
	if err := s.codec.Unmarshal([]byte(encoded), &snap.Context); err != nil {
		return snap, false, fmt.Errorf("failed to unmarshal context: %w", err)
	}
	var err error
	if snap.CreatedAt, err = parseTime(createdAt); err != nil {
		return snap, false, err
	}
	if snap.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return snap, false, err
	}
	return snap, true, nil
}

// Create inserts the first snapshot row.
func (s *Store[C]) Create(ctx context.Context, id, state string, c C) (domain.Snapshot[C], error) {
	snap := domain.NewSnapshot(id, state, c, s.now())
	data, err := s.codec.Marshal(snap.Context)
	if err != nil {
		return domain.Snapshot[C]{}, fmt.Errorf("failed to marshal context: %w", err)
	}

	res, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO fsm_snapshots (namespace, id, state, context, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, id) DO NOTHING`),
		s.namespace, id, snap.State, string(data), snap.Version, formatTime(snap.CreatedAt), formatTime(snap.UpdatedAt))
	if err != nil {
		return domain.Snapshot[C]{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.Snapshot[C]{}, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return domain.Snapshot[C]{}, domain.ErrSnapshotExists
	}
	return snap, nil
}

// Save updates the row if it still holds version snap.Version-1.
func (s *Store[C]) Save(ctx context.Context, snap domain.Snapshot[C]) error {
	data, err := s.codec.Marshal(snap.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	expected := snap.Version - 1

	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE fsm_snapshots SET state = ?, context = ?, version = ?, updated_at = ?
		 WHERE namespace = ? AND id = ? AND version = ?`),
		snap.State, string(data), snap.Version, formatTime(snap.UpdatedAt), s.namespace, snap.ID, expected)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var actual int64
	err = s.db.QueryRowContext(ctx, s.rebind(
		`SELECT version FROM fsm_snapshots WHERE namespace = ? AND id = ?`),
		s.namespace, snap.ID).Scan(&actual)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read conflicting version: %w", err)
	}
	return &domain.ConflictError{ID: snap.ID, Expected: expected, Actual: actual}
}

// Delete removes the row.
func (s *Store[C]) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM fsm_snapshots WHERE namespace = ? AND id = ?`), s.namespace, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the actor ids of the namespace in lexical order.
func (s *Store[C]) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id FROM fsm_snapshots WHERE namespace = ? ORDER BY id`), s.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database if the store opened it.
func (s *Store[C]) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// rebind turns ? placeholders into $n for postgres.
func (s *Store[C]) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
