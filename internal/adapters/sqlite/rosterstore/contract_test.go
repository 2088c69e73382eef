package rosterstore

import (
	"path/filepath"
	"testing"

	"github.com/simplimarked/signup-api/internal/adapters/contracttest"
	rosterstoreport "github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
)

func TestContract_RosterStore(t *testing.T) {
	contracttest.RunRosterStore(t, func(t *testing.T) (rosterstoreport.Store, func()) {
		t.Helper()
		s, err := New(filepath.Join(t.TempDir(), "signup.db"))
		if err != nil {
			t.Fatalf("New err=%v", err)
		}
		return s, func() { _ = s.Close() }
	})
}
