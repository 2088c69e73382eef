package domain

import (
	"errors"
	"testing"
)

func TestRosterClone_Independent(t *testing.T) {
	t.Parallel()

	amt := Money(300)
	r := &Roster{Date: "Signup", People: []Participant{{ID: "a", Name: "Alice", Amount: &amt}}}
	c := r.Clone()
	c.People[0].Name = "Changed"
	*c.People[0].Amount = 1

	if r.People[0].Name != "Alice" || *r.People[0].Amount != 300 {
		t.Fatalf("clone aliased original: %+v", r.People[0])
	}
	if (*Roster)(nil).Clone() != nil {
		t.Fatalf("nil clone should be nil")
	}
}

func TestRosterFind(t *testing.T) {
	t.Parallel()

	r := &Roster{People: []Participant{{ID: "a"}, {ID: "b"}}}
	if i, ok := r.Find("b"); !ok || i != 1 {
		t.Fatalf("Find(b)=%d,%v", i, ok)
	}
	if _, ok := r.Find("z"); ok {
		t.Fatalf("Find(z) should miss")
	}
}

func TestRosterValidate(t *testing.T) {
	t.Parallel()

	valid := Participant{ID: "a", MembershipType: MembershipDropIn, PaymentMethod: PaymentCash}
	if err := (&Roster{People: []Participant{valid}}).Validate(); err != nil {
		t.Fatalf("Validate err=%v", err)
	}

	bad := map[string][]Participant{
		"missing id":       {{MembershipType: MembershipMember, PaymentMethod: PaymentCash}},
		"duplicate id":     {valid, valid},
		"unknown type":     {{ID: "a", MembershipType: "vip", PaymentMethod: PaymentCash}},
		"unknown method":   {{ID: "a", MembershipType: MembershipMember, PaymentMethod: "card"}},
		"negative amount":  {{ID: "a", MembershipType: MembershipDropIn, PaymentMethod: PaymentCash, Amount: money(-500)}},
		"amount above max": {{ID: "a", MembershipType: MembershipDropIn, PaymentMethod: PaymentCash, Amount: money(MaxMoney + 1)}},
	}
	for name, people := range bad {
		if err := (&Roster{People: people}).Validate(); !errors.Is(err, ErrInvalidRoster) {
			t.Fatalf("%s: err=%v, want ErrInvalidRoster", name, err)
		}
	}
}
