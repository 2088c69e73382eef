package contracttest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/simplimarked/signup-api/internal/domain"
	rosterstoreport "github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
)

type CleanupFunc = func()

type RosterStoreFactory func(t *testing.T) (rosterstoreport.Store, CleanupFunc)

const waitTimeout = 5 * time.Second

// RunRosterStore checks the behavior every rosterstore.Store backend must share.
func RunRosterStore(t *testing.T, newStore RosterStoreFactory) {
	t.Helper()

	t.Run("load_absent", func(t *testing.T) {
		store := open(t, newStore)
		got, err := store.Load(context.Background(), uniquePath())
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil roster, got %+v", got)
		}
	})

	t.Run("write_load_overwrite_reset", func(t *testing.T) {
		ctx := context.Background()
		store := open(t, newStore)
		path := uniquePath()

		first := sampleRoster("Friday Signup", "Alice", "Bob")
		if err := store.Write(ctx, path, first); err != nil {
			t.Fatalf("Write: %v", err)
		}
		got, err := store.Load(ctx, path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		assertRoster(t, got, first)

		second := sampleRoster("Saturday Signup", "Carol")
		amt := domain.Money(1250)
		second.People[0].Amount = &amt
		second.People[0].PaymentMethod = domain.PaymentET
		if err := store.Write(ctx, path, second); err != nil {
			t.Fatalf("Write overwrite: %v", err)
		}
		got, err = store.Load(ctx, path)
		if err != nil {
			t.Fatalf("Load after overwrite: %v", err)
		}
		assertRoster(t, got, second)

		if err := store.Write(ctx, path, nil); err != nil {
			t.Fatalf("Write nil: %v", err)
		}
		got, err = store.Load(ctx, path)
		if err != nil {
			t.Fatalf("Load after reset: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil after reset, got %+v", got)
		}

		// Resetting an absent document is not an error.
		if err := store.Write(ctx, path, nil); err != nil {
			t.Fatalf("Write nil twice: %v", err)
		}
	})

	t.Run("paths_are_isolated", func(t *testing.T) {
		ctx := context.Background()
		store := open(t, newStore)
		a, b := uniquePath(), uniquePath()

		if err := store.Write(ctx, a, sampleRoster("A Signup", "Alice")); err != nil {
			t.Fatalf("Write a: %v", err)
		}
		got, err := store.Load(ctx, b)
		if err != nil {
			t.Fatalf("Load b: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil for other path, got %+v", got)
		}
	})

	t.Run("subscribe_streams_state", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		store := open(t, newStore)
		path := uniquePath()

		initial := sampleRoster("Initial Signup", "Alice")
		if err := store.Write(ctx, path, initial); err != nil {
			t.Fatalf("Write: %v", err)
		}

		ch, err := store.Subscribe(ctx, path)
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
		snap := next(t, ch)
		if snap.Path != path {
			t.Fatalf("snapshot path=%q want %q", snap.Path, path)
		}
		assertRoster(t, snap.Roster, initial)

		updated := sampleRoster("Updated Signup", "Alice", "Bob")
		if err := store.Write(ctx, path, updated); err != nil {
			t.Fatalf("Write update: %v", err)
		}
		snap = waitFor(t, ch, func(s rosterstoreport.Snapshot) bool {
			return s.Roster != nil && s.Roster.Date == "Updated Signup"
		})
		assertRoster(t, snap.Roster, updated)

		if err := store.Write(ctx, path, nil); err != nil {
			t.Fatalf("Write nil: %v", err)
		}
		waitFor(t, ch, func(s rosterstoreport.Snapshot) bool { return s.Roster == nil })

		cancel()
		waitClosed(t, ch)
	})

	t.Run("subscribe_absent_then_created", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		store := open(t, newStore)
		path := uniquePath()

		ch, err := store.Subscribe(ctx, path)
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
		if snap := next(t, ch); snap.Roster != nil {
			t.Fatalf("expected nil initial snapshot, got %+v", snap.Roster)
		}

		if err := store.Write(ctx, path, sampleRoster("New Signup", "Dana")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		waitFor(t, ch, func(s rosterstoreport.Snapshot) bool {
			return s.Roster != nil && len(s.Roster.People) == 1
		})
	})

	t.Run("subscribers_on_other_paths_are_not_notified", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		store := open(t, newStore)
		watched, other := uniquePath(), uniquePath()

		ch, err := store.Subscribe(ctx, watched)
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
		next(t, ch)

		if err := store.Write(ctx, other, sampleRoster("Other Signup", "Eve")); err != nil {
			t.Fatalf("Write other: %v", err)
		}
		if err := store.Write(ctx, watched, sampleRoster("Watched Signup", "Finn")); err != nil {
			t.Fatalf("Write watched: %v", err)
		}
		snap := waitFor(t, ch, func(s rosterstoreport.Snapshot) bool { return s.Roster != nil })
		if snap.Roster.Date != "Watched Signup" {
			t.Fatalf("received snapshot for other path: %+v", snap.Roster)
		}
	})
}

func open(t *testing.T, newStore RosterStoreFactory) rosterstoreport.Store {
	t.Helper()
	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return store
}

func uniquePath() domain.SessionPath {
	return domain.SessionPath("session-" + uuid.NewString())
}

func sampleRoster(title string, names ...string) *domain.Roster {
	now := time.Unix(1_700_000_000, 0).UTC()
	r := &domain.Roster{
		Date:          title,
		RawInput:      title,
		LastUpdated:   now,
		LastUpdatedBy: "contract",
	}
	for _, n := range names {
		r.People = append(r.People, domain.Participant{
			ID:             domain.ParticipantID(uuid.NewString()),
			Name:           n,
			MembershipType: domain.MembershipDropIn,
			PaymentMethod:  domain.PaymentCash,
			LastUpdatedBy:  "contract",
			LastUpdated:    now,
		})
		r.RawInput += "\n" + n
	}
	return r
}

func assertRoster(t *testing.T, got, want *domain.Roster) {
	t.Helper()
	if got == nil {
		t.Fatalf("expected roster %q, got nil", want.Date)
	}
	if got.Date != want.Date || got.RawInput != want.RawInput || got.LastUpdatedBy != want.LastUpdatedBy {
		t.Fatalf("unexpected roster header: got %+v want %+v", got, want)
	}
	if !got.LastUpdated.Equal(want.LastUpdated) {
		t.Fatalf("lastUpdated=%v want %v", got.LastUpdated, want.LastUpdated)
	}
	if len(got.People) != len(want.People) {
		t.Fatalf("people len=%d want %d", len(got.People), len(want.People))
	}
	for i := range want.People {
		g, w := got.People[i], want.People[i]
		if g.ID != w.ID || g.Name != w.Name || g.MembershipType != w.MembershipType ||
			g.Paid != w.Paid || g.PaymentMethod != w.PaymentMethod {
			t.Fatalf("people[%d]=%+v want %+v", i, g, w)
		}
		switch {
		case w.Amount == nil && g.Amount != nil:
			t.Fatalf("people[%d] amount=%v want nil", i, *g.Amount)
		case w.Amount != nil && (g.Amount == nil || *g.Amount != *w.Amount):
			t.Fatalf("people[%d] amount=%v want %v", i, g.Amount, *w.Amount)
		}
	}
}

func next(t *testing.T, ch <-chan rosterstoreport.Snapshot) rosterstoreport.Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatalf("subscription closed early")
		}
		return s
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for snapshot")
	}
	return rosterstoreport.Snapshot{}
}

// waitFor drains snapshots until one satisfies match. Intermediate snapshots
// may be skipped by the store, so only the eventual state is asserted.
func waitFor(t *testing.T, ch <-chan rosterstoreport.Snapshot, match func(rosterstoreport.Snapshot) bool) rosterstoreport.Snapshot {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				t.Fatalf("subscription closed early")
			}
			if match(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for matching snapshot")
		}
	}
}

func waitClosed(t *testing.T, ch <-chan rosterstoreport.Snapshot) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("subscription not closed after cancel")
		}
	}
}
