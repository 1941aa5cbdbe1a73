// Package diary stores date-keyed diary entries in a single TSV file.
//
// Every operation runs the same sequence while holding the [Gate]: make sure
// the data directory exists, read the whole file (missing means empty),
// decode it, apply the operation and, for mutations, encode all entries in
// ascending key order and atomically replace the file. Readers therefore
// never see a half-written file and concurrent upserts never lose each
// other's changes.
package diary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/calvinalkan/diary/pkg/fs"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// Operation names used in logs and metrics.
const (
	opList   = "list"
	opGet    = "get"
	opUpsert = "upsert"
	opDelete = "delete"
)

// Config configures a [Store].
type Config struct {
	// Path is the data file. Its parent directory is created on demand.
	// Required.
	Path string

	// Gate serializes access to Path. Every Store on the same file must share
	// one Gate. Required.
	Gate *Gate

	// FS is the filesystem to use. Defaults to [fs.NewReal].
	FS fs.FS

	// Now returns the current time for timestamps. Defaults to [time.Now].
	Now func() time.Time

	// Logger receives warnings about dropped lines. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics is optional.
	Metrics *Metrics
}

// Store reads and writes diary entries. Safe for concurrent use.
type Store struct {
	path    string
	dir     string
	gate    *Gate
	fs      fs.FS
	writer  *fs.AtomicWriter
	now     func() time.Time
	log     *zap.Logger
	metrics *Metrics
}

// Open validates cfg and returns a Store. It does not touch the filesystem;
// the data directory and file are created by the first write.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}

	if cfg.Path == "" {
		return nil, ErrPathRequired
	}

	if cfg.Gate == nil {
		return nil, ErrGateRequired
	}

	fsys := cfg.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	path := filepath.Clean(cfg.Path)

	return &Store{
		path:    path,
		dir:     filepath.Dir(path),
		gate:    cfg.Gate,
		fs:      fsys,
		writer:  fs.NewAtomicWriter(fsys),
		now:     now,
		log:     log.With(zap.String("data_file", path)),
		metrics: cfg.Metrics,
	}, nil
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// List returns all entries, newest date first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var out []Entry

	err := s.run(ctx, opList, func(entries map[string]Entry) (bool, error) {
		out = make([]Entry, 0, len(entries))
		for _, e := range entries {
			out = append(out, e)
		}

		SortDescending(out)

		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Get returns the entry for key. The boolean is false if there is none.
func (s *Store) Get(ctx context.Context, key string) (Entry, bool, error) {
	var (
		out   Entry
		found bool
	)

	err := s.run(ctx, opGet, func(entries map[string]Entry) (bool, error) {
		out, found = entries[key]

		return false, nil
	})
	if err != nil {
		return Entry{}, false, err
	}

	return out, found, nil
}

// Upsert creates or replaces the entry for key and returns it.
//
// An existing entry keeps its CreatedAt; UpdatedAt is always set to now.
// The file is rewritten even if nothing changed.
func (s *Store) Upsert(ctx context.Context, key, title, body string) (Entry, error) {
	var out Entry

	err := s.run(ctx, opUpsert, func(entries map[string]Entry) (bool, error) {
		now := FormatTimestamp(s.now())

		createdAt := entries[key].CreatedAt
		if createdAt == "" {
			createdAt = now
		}

		out = Entry{
			Key:       key,
			Title:     title,
			Body:      body,
			CreatedAt: createdAt,
			UpdatedAt: now,
		}
		entries[key] = out

		return true, nil
	})
	if err != nil {
		return Entry{}, err
	}

	return out, nil
}

// Delete removes the entry for key and reports whether it existed.
// The file is rewritten in both cases.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	var existed bool

	err := s.run(ctx, opDelete, func(entries map[string]Entry) (bool, error) {
		_, existed = entries[key]
		delete(entries, key)

		return true, nil
	})
	if err != nil {
		return false, err
	}

	return existed, nil
}

// run executes fn on the decoded file while holding the gate. If fn reports
// a mutation, the resulting map is written back before the gate is released.
//
// ctx is only checked before queuing: once a caller waits on the gate it
// runs to completion.
func (s *Store) run(ctx context.Context, op string, fn func(map[string]Entry) (bool, error)) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}

	start := time.Now()

	defer func() { s.metrics.observe(op, start, err) }()

	release := s.gate.Acquire()
	defer release()

	entries, err := s.load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	mutated, err := fn(entries)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !mutated {
		return nil
	}

	err = s.save(entries)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.loaded(len(entries), 0)

	return nil
}

func (s *Store) load() (map[string]Entry, error) {
	err := s.fs.MkdirAll(s.dir, dirPerms)
	if err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	data, err := s.fs.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	entries, skipped := DecodeFile(data)
	if skipped > 0 {
		s.log.Warn("dropped malformed lines", zap.Int("skipped", skipped))
	}

	s.metrics.loaded(len(entries), skipped)

	return entries, nil
}

func (s *Store) save(entries map[string]Entry) error {
	sorted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		sorted = append(sorted, e)
	}

	SortAscending(sorted)

	err := s.writer.Write(s.path, bytes.NewReader(EncodeFile(sorted)), fs.AtomicWriteOptions{
		SyncDir: true,
		Perm:    filePerms,
	})
	if err != nil {
		return fmt.Errorf("write data file: %w", err)
	}

	return nil
}
