package rosterstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/simplimarked/signup-api/internal/adapters/postgres"
	"github.com/simplimarked/signup-api/internal/domain"
	"github.com/simplimarked/signup-api/internal/platform/pubsub"
	"github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
)

// notifyChannel carries the path of every written document.
const notifyChannel = "roster_documents"

// reconnectDelay spaces attempts to re-establish a lost LISTEN connection.
const reconnectDelay = time.Second

var (
	errNilPool = fmt.Errorf("%w: nil postgres pool", rosterstore.ErrSyncFailure)
	errClosed  = fmt.Errorf("%w: store closed", rosterstore.ErrSyncFailure)
)

// Store is a Postgres implementation of rosterstore.Store. Writes are announced
// with NOTIFY so stores in any process see them. Each Store LISTENs on a single
// pooled connection and fans reloaded documents out to its subscribers, so the
// pool needs MaxConns of at least 2.
type Store struct {
	pool   *pgxpool.Pool
	broker *pubsub.Broker[rosterstore.Snapshot]

	// mu orders notification reloads against subscriptions so no update falls
	// between a subscriber's initial load and its registration.
	mu      sync.Mutex
	closed  bool
	stop    context.CancelFunc
	stopped chan struct{}
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:   pool,
		broker: pubsub.NewBroker(rosterstore.CloneSnapshot),
	}
}

// Close stops the listener, gives its connection back to the pool and ends
// every subscription. The pool stays open.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	stop, stopped := s.stop, s.stopped
	s.mu.Unlock()

	if stop != nil {
		stop()
		<-stopped
	}
	s.broker.Close()
}

func (s *Store) Load(ctx context.Context, path domain.SessionPath) (*domain.Roster, error) {
	if s.pool == nil {
		return nil, errNilPool
	}
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM roster_documents WHERE path = $1`, string(path),
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, syncErr("load", path, err)
	}
	r, err := rosterstore.UnmarshalDocument(doc)
	if err != nil {
		return nil, syncErr("decode", path, err)
	}
	return r, nil
}

func (s *Store) Write(ctx context.Context, path domain.SessionPath, r *domain.Roster) error {
	if s.pool == nil {
		return errNilPool
	}
	var doc []byte
	if r != nil {
		b, err := rosterstore.MarshalDocument(r)
		if err != nil {
			return syncErr("encode", path, err)
		}
		doc = b
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if doc == nil {
			if _, err := tx.Exec(ctx, `DELETE FROM roster_documents WHERE path = $1`, string(path)); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(ctx, `
				INSERT INTO roster_documents (path, document, updated_at)
				VALUES ($1, $2, now())
				ON CONFLICT (path) DO UPDATE
				SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
			`, string(path), doc); err != nil {
				return err
			}
		}
		// Delivered on commit.
		_, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, string(path))
		return err
	})
	if err != nil {
		return syncErr("write", path, err)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, path domain.SessionPath) (<-chan rosterstore.Snapshot, error) {
	if s.pool == nil {
		return nil, errNilPool
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errClosed
	}
	// LISTEN precedes the initial load so no commit falls between them.
	if err := s.startListener(ctx); err != nil {
		return nil, syncErr("listen", path, err)
	}
	initial, err := s.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.broker.Subscribe(ctx, string(path), rosterstore.Snapshot{Path: path, Roster: initial}), nil
}

// startListener must be called with s.mu held.
func (s *Store) startListener(ctx context.Context) error {
	if s.stop != nil {
		return nil
	}
	pc, err := s.listenConn(ctx)
	if err != nil {
		return err
	}
	lctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.stopped = make(chan struct{})
	go s.listen(lctx, pc, s.stopped)
	return nil
}

func (s *Store) listenConn(ctx context.Context) (*pgxpool.Conn, error) {
	pc, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := pc.Exec(ctx, "LISTEN "+pgx.Identifier{notifyChannel}.Sanitize()); err != nil {
		releaseListener(pc)
		return nil, err
	}
	return pc, nil
}

// releaseListener closes the connection first so a LISTENing session is
// destroyed instead of going back to the idle pool.
func releaseListener(pc *pgxpool.Conn) {
	_ = pc.Conn().Close(context.Background())
	pc.Release()
}

func (s *Store) listen(ctx context.Context, pc *pgxpool.Conn, stopped chan struct{}) {
	defer close(stopped)
	for {
		err := s.dispatch(ctx, pc)
		releaseListener(pc)
		if ctx.Err() != nil {
			return
		}
		slog.Error("roster listener lost", "err", err)

		if pc = s.reconnect(ctx); pc == nil {
			return
		}
		// Notifications sent while disconnected are gone.
		for _, topic := range s.broker.Topics() {
			s.reload(ctx, domain.SessionPath(topic))
		}
	}
}

func (s *Store) dispatch(ctx context.Context, pc *pgxpool.Conn) error {
	for {
		n, err := pc.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		s.reload(ctx, domain.SessionPath(n.Payload))
	}
}

func (s *Store) reconnect(ctx context.Context) *pgxpool.Conn {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
		pc, err := s.listenConn(ctx)
		if err == nil {
			return pc
		}
		if ctx.Err() != nil {
			return nil
		}
		slog.Error("roster listener reconnect failed", "err", err)
	}
}

// reload publishes the stored document at path to its subscribers, if any.
func (s *Store) reload(ctx context.Context, path domain.SessionPath) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broker.Subscribers(string(path)) == 0 {
		return
	}
	r, err := s.Load(ctx, path)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("roster reload failed", "path", path, "err", err)
		}
		return
	}
	s.broker.Publish(string(path), rosterstore.Snapshot{Path: path, Roster: r})
}

func syncErr(op string, path domain.SessionPath, err error) error {
	if pe, ok := postgres.AsPgError(err); ok {
		return fmt.Errorf("%w: %s %s (sqlstate %s): %w", rosterstore.ErrSyncFailure, op, path, pe.Code, err)
	}
	return fmt.Errorf("%w: %s %s: %w", rosterstore.ErrSyncFailure, op, path, err)
}

var _ rosterstore.Store = (*Store)(nil)
