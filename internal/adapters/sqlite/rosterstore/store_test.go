package rosterstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/simplimarked/signup-api/internal/domain"
	rosterstoreport "github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
)

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "signup.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	amt := domain.Money(1999)
	in := &domain.Roster{
		Date: "Tuesday Signup",
		People: []domain.Participant{{
			ID:             "p1",
			Name:           "Alice",
			MembershipType: domain.MembershipDropIn,
			Paid:           true,
			Amount:         &amt,
			PaymentMethod:  domain.PaymentET,
		}},
	}
	if err := s.Write(ctx, "session", in); err != nil {
		t.Fatalf("Write err=%v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close err=%v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen err=%v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Load(ctx, "session")
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if got == nil || len(got.People) != 1 {
		t.Fatalf("unexpected roster: %+v", got)
	}
	p := got.People[0]
	if p.Amount == nil || *p.Amount != 1999 || p.PaymentMethod != domain.PaymentET || !p.Paid {
		t.Fatalf("unexpected participant: %+v", p)
	}
}

func TestStore_ClosedDatabaseIsSyncFailure(t *testing.T) {
	t.Parallel()

	s, err := New(filepath.Join(t.TempDir(), "signup.db"))
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	_ = s.Close()

	_, err = s.Load(context.Background(), "session")
	if !errors.Is(err, rosterstoreport.ErrSyncFailure) {
		t.Fatalf("Load err=%v, want ErrSyncFailure", err)
	}
	err = s.Write(context.Background(), "session", &domain.Roster{})
	if !errors.Is(err, rosterstoreport.ErrSyncFailure) {
		t.Fatalf("Write err=%v, want ErrSyncFailure", err)
	}
}
