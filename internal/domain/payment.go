package domain

import (
	"fmt"
	"time"
)

// IsPaid derives the paid state. Members use the stored flag; everyone else is
// paid iff a positive amount was entered. The payment method never matters.
func (p Participant) IsPaid() bool {
	if p.MembershipType == MembershipMember {
		return p.Paid
	}
	return p.Amount != nil && *p.Amount > 0
}

// PaymentLabel is the text shown on the payment button.
func (p Participant) PaymentLabel() string {
	if p.MembershipType == MembershipMember {
		if p.Paid {
			return "Paid"
		}
		return "Unpaid"
	}
	if !p.IsPaid() {
		return "Unpaid"
	}
	if p.PaymentMethod == PaymentET {
		return "ET"
	}
	return "Cash"
}

func (p Participant) StatusLabel() string {
	switch p.MembershipType {
	case MembershipMember:
		return "Member"
	case MembershipConverting:
		return "Converting to Member"
	default:
		return "Drop-in"
	}
}

// TogglePayment applies a payment-button press.
//
// Members flip their paid flag. Paid drop-ins and converting members flip
// between cash and ET. Unpaid drop-ins and converting members are not changed;
// ErrRequiresAmountEntry tells the caller to collect an amount instead.
func TogglePayment(p Participant, actor Actor, now time.Time) (Participant, error) {
	switch {
	case p.MembershipType == MembershipMember:
		p.Paid = !p.Paid
	case p.IsPaid():
		p.PaymentMethod = p.PaymentMethod.Toggled()
	default:
		return p, ErrRequiresAmountEntry
	}
	p.stamp(actor, now)
	return p, nil
}

// SetAmount replaces the amount. nil clears it back to unpaid.
func SetAmount(p Participant, amount *Money, actor Actor, now time.Time) (Participant, error) {
	if amount != nil && !amount.Valid() {
		return p, fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}
	if amount == nil {
		p.Amount = nil
	} else {
		v := *amount
		p.Amount = &v
	}
	p.stamp(actor, now)
	return p, nil
}

func (p *Participant) stamp(actor Actor, now time.Time) {
	p.LastUpdatedBy = ActorOrDefault(actor)
	p.LastUpdated = now
}
