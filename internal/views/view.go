package views

import (
	"time"

	"github.com/simplimarked/signup-api/internal/domain"
)

// ViewRow is one presented participant with every derived field resolved.
type ViewRow struct {
	OriginalIndex  int                   `json:"originalIndex" yaml:"originalIndex"`
	ID             domain.ParticipantID  `json:"id" yaml:"id"`
	Name           string                `json:"name" yaml:"name"`
	DisplayName    string                `json:"displayName" yaml:"displayName"`
	MembershipType domain.MembershipType `json:"membershipType" yaml:"membershipType"`
	StatusLabel    string                `json:"statusLabel" yaml:"statusLabel"`
	Paid           bool                  `json:"paid" yaml:"paid"`
	PaymentLabel   string                `json:"paymentLabel" yaml:"paymentLabel"`
	Amount         *domain.Money         `json:"amount" yaml:"amount"`
	PaymentMethod  domain.PaymentMethod  `json:"paymentMethod" yaml:"paymentMethod"`
	LastUpdatedBy  domain.Actor          `json:"lastUpdatedBy" yaml:"lastUpdatedBy"`
	LastUpdated    time.Time             `json:"lastUpdated" yaml:"lastUpdated"`
}

// View is the presentation document for a roster.
type View struct {
	Date          string       `json:"date" yaml:"date"`
	RawInput      string       `json:"rawInput" yaml:"rawInput"`
	Sort          SortOption   `json:"sort" yaml:"sort"`
	Direction     Direction    `json:"direction" yaml:"direction"`
	Rows          []ViewRow    `json:"rows" yaml:"rows"`
	Stats         Stats        `json:"stats" yaml:"stats"`
	LastUpdated   time.Time    `json:"lastUpdated" yaml:"lastUpdated"`
	LastUpdatedBy domain.Actor `json:"lastUpdatedBy" yaml:"lastUpdatedBy"`
}

func Build(r domain.Roster, option SortOption, dir Direction) View {
	if option == SortOriginal {
		dir = Asc
	}
	sorted := Sort(r.People, option, dir)
	rows := make([]ViewRow, 0, len(sorted))
	for _, s := range sorted {
		rows = append(rows, ViewRow{
			OriginalIndex:  s.OriginalIndex,
			ID:             s.ID,
			Name:           s.Name,
			DisplayName:    domain.DisplayName(s.Name),
			MembershipType: s.MembershipType,
			StatusLabel:    s.StatusLabel(),
			Paid:           s.IsPaid(),
			PaymentLabel:   s.PaymentLabel(),
			Amount:         s.Amount,
			PaymentMethod:  s.PaymentMethod,
			LastUpdatedBy:  s.LastUpdatedBy,
			LastUpdated:    s.LastUpdated,
		})
	}
	return View{
		Date:          r.Date,
		RawInput:      r.RawInput,
		Sort:          option,
		Direction:     dir,
		Rows:          rows,
		Stats:         Aggregate(r.People),
		LastUpdated:   r.LastUpdated,
		LastUpdatedBy: r.LastUpdatedBy,
	}
}
