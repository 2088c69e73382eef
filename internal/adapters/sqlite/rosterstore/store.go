// Package rosterstore provides a SQLite-backed rosterstore.Store for a single
// server process. Subscribers are notified in-process after each write.
package rosterstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/simplimarked/signup-api/internal/domain"
	"github.com/simplimarked/signup-api/internal/platform/pubsub"
	"github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
)

var _ rosterstore.Store = (*Store)(nil)

type Store struct {
	db *sql.DB

	// mu orders writes against subscriptions so no update falls between a
	// subscriber's initial load and its registration.
	mu     sync.Mutex
	broker *pubsub.Broker[rosterstore.Snapshot]
}

// New opens (creating if needed) the database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{
		db:     db,
		broker: pubsub.NewBroker(rosterstore.CloneSnapshot),
	}, nil
}

// Close ends every subscription and closes the database.
func (s *Store) Close() error {
	s.broker.Close()
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, path domain.SessionPath) (*domain.Roster, error) {
	return s.load(ctx, path)
}

func (s *Store) load(ctx context.Context, path domain.SessionPath) (*domain.Roster, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM roster_documents WHERE path = ?", string(path),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", rosterstore.ErrSyncFailure, path, err)
	}
	r, err := rosterstore.UnmarshalDocument([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", rosterstore.ErrSyncFailure, path, err)
	}
	return r, nil
}

func (s *Store) Write(ctx context.Context, path domain.SessionPath, r *domain.Roster) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r == nil {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM roster_documents WHERE path = ?", string(path),
		); err != nil {
			return fmt.Errorf("%w: delete %s: %w", rosterstore.ErrSyncFailure, path, err)
		}
	} else {
		doc, err := rosterstore.MarshalDocument(r)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %w", rosterstore.ErrSyncFailure, path, err)
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO roster_documents (path, document, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(path) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
			string(path), string(doc), time.Now().Unix(),
		); err != nil {
			return fmt.Errorf("%w: upsert %s: %w", rosterstore.ErrSyncFailure, path, err)
		}
	}

	s.broker.Publish(string(path), rosterstore.Snapshot{Path: path, Roster: r})
	return nil
}

func (s *Store) Subscribe(ctx context.Context, path domain.SessionPath) (<-chan rosterstore.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.load(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.broker.Subscribe(ctx, string(path), rosterstore.Snapshot{Path: path, Roster: r}), nil
}
