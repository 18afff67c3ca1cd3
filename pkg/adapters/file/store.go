package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/persistence/codec"
)

// DefaultDir is used when New is given an empty path.
var DefaultDir = filepath.Join(".durafsm", "actors")

// ErrInvalidID is returned for ids that cannot be used as file names.
var ErrInvalidID = domain.ErrInvalidID

// Store implements ports.Adapter using the local filesystem, one file per actor.
//
// Create is atomic across processes (hard link onto the final name).
// Save writes a temp file and renames it over the old one; the version check
// is guarded by an in-process mutex only.
type Store[C any] struct {
	BasePath string

	codec codec.Codec
	now   func() time.Time
	mu    sync.Mutex
}

// Option configures the Store.
type Option[C any] func(*Store[C])

// WithCodec sets the file format. The file extension follows the codec.
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

// New creates a new Store rooted at basePath.
func New[C any](basePath string, opts ...Option[C]) *Store[C] {
	if basePath == "" {
		basePath = DefaultDir
	}
	s := &Store[C]{
		BasePath: basePath,
		codec:    codec.JSON,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store[C]) path(id string) (string, error) {
	if id == "" {
		return "", domain.ErrEmptyID
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%q cannot be used as a file name: %w", id, ErrInvalidID)
	}
	return filepath.Join(s.BasePath, id+s.codec.Extension()), nil
}

// Load reads the snapshot file.
func (s *Store[C]) Load(ctx context.Context, id string) (domain.Snapshot[C], bool, error) {
	var snap domain.Snapshot[C]

	path, err := s.path(id)
	if err != nil {
		return snap, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snap, false, nil
		}
		return snap, false, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	if err := s.codec.Unmarshal(data, &snap); err != nil {
		return snap, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

// Create writes the first snapshot. It fails with domain.ErrSnapshotExists
// if the file is already present, even when another process created it.
func (s *Store[C]) Create(ctx context.Context, id, state string, c C) (domain.Snapshot[C], error) {
	path, err := s.path(id)
	if err != nil {
		return domain.Snapshot[C]{}, err
	}

	snap := domain.NewSnapshot(id, state, c, s.now())
	data, err := s.codec.Marshal(snap)
	if err != nil {
		return domain.Snapshot[C]{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmpPath, err := s.writeTemp(id, data)
	if err != nil {
		return domain.Snapshot[C]{}, err
	}
	defer os.Remove(tmpPath)

	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return domain.Snapshot[C]{}, domain.ErrSnapshotExists
		}
		return domain.Snapshot[C]{}, fmt.Errorf("failed to publish snapshot file: %w", err)
	}
	return snap, nil
}

// Save replaces the snapshot file if the stored version is snap.Version-1.
func (s *Store[C]) Save(ctx context.Context, snap domain.Snapshot[C]) error {
	path, err := s.path(snap.ID)
	if err != nil {
		return err
	}

	data, err := s.codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, found, err := s.Load(ctx, snap.ID)
	if err != nil {
		return err
	}
	expected := snap.Version - 1
	if !found || current.Version != expected {
		return &domain.ConflictError{ID: snap.ID, Expected: expected, Actual: current.Version}
	}

	tmpPath, err := s.writeTemp(snap.ID, data)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to snapshot: %w", err)
	}
	return nil
}

// writeTemp writes data to a synced hidden file in BasePath and returns its path.
// The caller removes it.
func (s *Store[C]) writeTemp(id string, data []byte) (string, error) {
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	// Same directory as the destination so rename and link stay on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, ".tmp-"+id+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return tmpPath, nil
}

// Delete removes the snapshot file.
func (s *Store[C]) Delete(ctx context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// List returns the ids of stored actors in lexical order.
func (s *Store[C]) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	ext := s.codec.Extension()
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ext {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}
