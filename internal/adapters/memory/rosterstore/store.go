package rosterstore

import (
	"context"
	"sync"

	"github.com/simplimarked/signup-api/internal/domain"
	"github.com/simplimarked/signup-api/internal/platform/pubsub"
	"github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
)

// Store is an in-memory implementation of rosterstore.Store.
// It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	docs   map[domain.SessionPath]*domain.Roster
	broker *pubsub.Broker[rosterstore.Snapshot]
}

func NewStore() *Store {
	return &Store{
		docs:   make(map[domain.SessionPath]*domain.Roster),
		broker: pubsub.NewBroker(rosterstore.CloneSnapshot),
	}
}

func (s *Store) Load(ctx context.Context, path domain.SessionPath) (*domain.Roster, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[path].Clone(), nil
}

func (s *Store) Write(ctx context.Context, path domain.SessionPath, r *domain.Roster) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if r == nil {
		delete(s.docs, path)
	} else {
		s.docs[path] = r.Clone()
	}
	s.broker.Publish(string(path), rosterstore.Snapshot{Path: path, Roster: s.docs[path]})
	return nil
}

func (s *Store) Subscribe(ctx context.Context, path domain.SessionPath) (<-chan rosterstore.Snapshot, error) {
	// Holding the lock orders the initial snapshot before any later write.
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.broker.Subscribe(ctx, string(path), rosterstore.Snapshot{Path: path, Roster: s.docs[path]}), nil
}

// Close ends every open subscription.
func (s *Store) Close() {
	s.broker.Close()
}

var _ rosterstore.Store = (*Store)(nil)
