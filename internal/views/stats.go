package views

import "github.com/simplimarked/signup-api/internal/domain"

// Stats summarizes a roster. Monetary totals are exact cent sums.
type Stats struct {
	Total      int `json:"total" yaml:"total"`
	Paid       int `json:"paid" yaml:"paid"`
	Unpaid     int `json:"unpaid" yaml:"unpaid"`
	Members    int `json:"members" yaml:"members"`
	DropIns    int `json:"dropins" yaml:"dropins"`
	Converting int `json:"converting" yaml:"converting"`

	CashAmount domain.Money `json:"cashAmount" yaml:"cashAmount"`
	ETAmount   domain.Money `json:"etAmount" yaml:"etAmount"`
}

// Aggregate counts people by payment state and membership type and totals the
// amounts paid by drop-ins and converting members per payment method.
// Members never contribute to the monetary totals.
func Aggregate(people []domain.Participant) Stats {
	var s Stats
	s.Total = len(people)
	for _, p := range people {
		paid := p.IsPaid()
		if paid {
			s.Paid++
		} else {
			s.Unpaid++
		}

		switch p.MembershipType {
		case domain.MembershipMember:
			s.Members++
			continue
		case domain.MembershipConverting:
			s.Converting++
		case domain.MembershipDropIn:
			s.DropIns++
		}

		if !paid {
			continue
		}
		switch p.PaymentMethod {
		case domain.PaymentCash:
			s.CashAmount += *p.Amount
		case domain.PaymentET:
			s.ETAmount += *p.Amount
		}
	}
	return s
}
