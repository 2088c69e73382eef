package rosterstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/simplimarked/signup-api/internal/domain"
)

// ErrSyncFailure wraps every backend failure: the store was unreachable or
// rejected the operation. Callers surface it; nothing retries automatically.
var ErrSyncFailure = errors.New("sync failure")

// Snapshot is one observed state of a roster document. Roster is nil when the
// document does not exist, including right after a reset.
type Snapshot struct {
	Path   domain.SessionPath
	Roster *domain.Roster
}

// Store is the replicated whole-document store every client reads from and
// writes to.
//
// Writes replace the entire document and the last write wins; there is no
// compare-and-swap. All subscribers eventually observe the latest write.
type Store interface {
	// Load returns the current document, or nil if none exists.
	Load(ctx context.Context, path domain.SessionPath) (*domain.Roster, error)

	// Write replaces the document. A nil roster deletes it (session reset).
	Write(ctx context.Context, path domain.SessionPath, r *domain.Roster) error

	// Subscribe streams snapshots of path, starting with the current state.
	// A slow receiver only sees the most recent snapshot. The channel is closed
	// once ctx is done.
	Subscribe(ctx context.Context, path domain.SessionPath) (<-chan Snapshot, error)
}

// MarshalDocument encodes a roster in the stored document format.
func MarshalDocument(r *domain.Roster) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalDocument decodes and validates a stored document.
func UnmarshalDocument(b []byte) (*domain.Roster, error) {
	var r domain.Roster
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// CloneSnapshot deep-copies s so each subscriber owns its roster.
func CloneSnapshot(s Snapshot) Snapshot {
	return Snapshot{Path: s.Path, Roster: s.Roster.Clone()}
}
