// Package sqlite provides a SQLite-backed persistent store that reuses the
// in-memory transaction engine and snapshots the full state as JSON buckets
// after every committed transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fishynet/internal/infra/persistence/memory"
	"fishynet/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

// Store persists the in-memory state to a single SQLite table as JSON blobs.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "fishynet.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

type bucketCodec struct {
	name   string
	decode func(snapshot *memory.Snapshot, payload []byte) error
	encode func(snapshot memory.Snapshot) ([]byte, error)
}

var buckets = []bucketCodec{
	{
		name:   "fish",
		decode: func(s *memory.Snapshot, p []byte) error { return json.Unmarshal(p, &s.Fish) },
		encode: func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Fish) },
	},
	{
		name:   "fishers",
		decode: func(s *memory.Snapshot, p []byte) error { return json.Unmarshal(p, &s.Fishers) },
		encode: func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Fishers) },
	},
	{
		name:   "buyers",
		decode: func(s *memory.Snapshot, p []byte) error { return json.Unmarshal(p, &s.Buyers) },
		encode: func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Buyers) },
	},
	{
		name:   "regulators",
		decode: func(s *memory.Snapshot, p []byte) error { return json.Unmarshal(p, &s.Regulators) },
		encode: func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Regulators) },
	},
	{
		name:   "measurements",
		decode: func(s *memory.Snapshot, p []byte) error { return json.Unmarshal(p, &s.Measurements) },
		encode: func(s memory.Snapshot) ([]byte, error) { return json.Marshal(s.Measurements) },
	},
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	payloads := make(map[string][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(payloads) == 0 {
		return nil
	}
	snapshot := memory.Snapshot{}
	for _, bucket := range buckets {
		payload, ok := payloads[bucket.name]
		if !ok {
			continue
		}
		if err := bucket.decode(&snapshot, payload); err != nil {
			return fmt.Errorf("decode %s: %w", bucket.name, err)
		}
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		payload, err := bucket.encode(snapshot)
		if err != nil {
			return fmt.Errorf("encode %s: %w", bucket.name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO state (bucket, payload) VALUES (?, ?)
			 ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
			bucket.name, payload,
		); err != nil {
			return fmt.Errorf("write %s: %w", bucket.name, err)
		}
	}
	return tx.Commit()
}

// RunInTransaction applies fn atomically in memory, then snapshots the
// committed state to SQLite.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if err := s.persist(); err != nil {
		return res, fmt.Errorf("persist snapshot: %w", err)
	}
	return res, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the sqlite file location.
func (s *Store) Path() string {
	return s.path
}
