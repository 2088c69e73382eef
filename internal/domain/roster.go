package domain

import (
	"fmt"
	"time"
)

type MembershipType string

const (
	MembershipDropIn     MembershipType = "dropin"
	MembershipConverting MembershipType = "converting"
	MembershipMember     MembershipType = "member"
)

func (m MembershipType) IsValid() bool {
	return m == MembershipDropIn || m == MembershipConverting || m == MembershipMember
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentET   PaymentMethod = "et" // electronic transfer
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentCash || m == PaymentET
}

// Toggled returns the other payment method.
func (m PaymentMethod) Toggled() PaymentMethod {
	if m == PaymentCash {
		return PaymentET
	}
	return PaymentCash
}

// Participant is one signed-up person on a roster.
//
// Paid is authoritative only for members; drop-ins and converting members are
// paid iff Amount is positive. MembershipType never changes after parsing.
type Participant struct {
	ID             ParticipantID  `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	MembershipType MembershipType `json:"membershipType" yaml:"membershipType"`
	Paid           bool           `json:"paid" yaml:"paid"`
	Amount         *Money         `json:"amount" yaml:"amount"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod" yaml:"paymentMethod"`

	LastUpdatedBy Actor     `json:"lastUpdatedBy" yaml:"lastUpdatedBy"`
	LastUpdated   time.Time `json:"lastUpdated" yaml:"lastUpdated"`
}

// Roster is the whole replicated document for one signup sheet.
// People keeps parse order; sorted views are derived and never written back.
type Roster struct {
	Date     string        `json:"date" yaml:"date"`
	People   []Participant `json:"people" yaml:"people"`
	RawInput string        `json:"rawInput" yaml:"rawInput"`

	LastUpdated   time.Time `json:"lastUpdated" yaml:"lastUpdated"`
	LastUpdatedBy Actor     `json:"lastUpdatedBy" yaml:"lastUpdatedBy"`
}

// Clone returns a deep copy of r.
func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	out := *r
	out.People = make([]Participant, len(r.People))
	for i, p := range r.People {
		out.People[i] = p.clone()
	}
	return &out
}

// Find returns the index of the participant with the given ID.
func (r *Roster) Find(id ParticipantID) (int, bool) {
	if r == nil {
		return -1, false
	}
	for i := range r.People {
		if r.People[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Validate checks a roster read back from storage: every participant has a
// unique non-empty ID, known enum values and an amount within [0, MaxMoney].
func (r *Roster) Validate() error {
	seen := make(map[ParticipantID]struct{}, len(r.People))
	for i, p := range r.People {
		if p.ID == "" {
			return fmt.Errorf("%w: people[%d] has no id", ErrInvalidRoster, i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidRoster, p.ID)
		}
		seen[p.ID] = struct{}{}
		if !p.MembershipType.IsValid() {
			return fmt.Errorf("%w: people[%d] membershipType %q", ErrInvalidRoster, i, p.MembershipType)
		}
		if !p.PaymentMethod.IsValid() {
			return fmt.Errorf("%w: people[%d] paymentMethod %q", ErrInvalidRoster, i, p.PaymentMethod)
		}
		if p.Amount != nil && !p.Amount.Valid() {
			return fmt.Errorf("%w: people[%d] amount %s", ErrInvalidRoster, i, *p.Amount)
		}
	}
	return nil
}

func (p Participant) clone() Participant {
	out := p
	if p.Amount != nil {
		v := *p.Amount
		out.Amount = &v
	}
	return out
}
