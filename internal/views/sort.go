// Package views derives read-only presentations of a roster: sorted rows and
// summary statistics. Nothing here mutates or persists the roster.
package views

import (
	"fmt"
	"slices"
	"strings"

	"github.com/simplimarked/signup-api/internal/domain"
)

type SortOption string

const (
	SortOriginal       SortOption = "original"
	SortPayment        SortOption = "payment"
	SortAlphabetical   SortOption = "alphabetical"
	SortMembershipType SortOption = "membershipType"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortOption accepts the option names plus the legacy aliases
// "playerType" and "type" for SortMembershipType. Empty means SortOriginal.
func ParseSortOption(s string) (SortOption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "original":
		return SortOriginal, nil
	case "payment":
		return SortPayment, nil
	case "alphabetical", "a-z", "name":
		return SortAlphabetical, nil
	case "membershiptype", "playertype", "type":
		return SortMembershipType, nil
	}
	return "", fmt.Errorf("unknown sort option %q", s)
}

// ParseDirection accepts "asc" or "desc"; empty means Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// NextSort returns the sort state after the user picks option. Picking the
// active option again flips the direction, except for SortOriginal which
// has no direction. Picking anything else starts ascending.
func NextSort(curOpt SortOption, curDir Direction, option SortOption) (SortOption, Direction) {
	if option == curOpt && option != SortOriginal {
		if curDir == Asc {
			return option, Desc
		}
		return option, Asc
	}
	return option, Asc
}

// Row is a participant together with its position in the parsed roster.
type Row struct {
	OriginalIndex int
	domain.Participant
}

var membershipRank = map[domain.MembershipType]int{
	domain.MembershipDropIn:     1,
	domain.MembershipConverting: 2,
	domain.MembershipMember:     3,
}

func rank(m domain.MembershipType) int {
	if r, ok := membershipRank[m]; ok {
		return r
	}
	return 99
}

// Sort orders people by option. Participants with equal keys keep their
// original relative order; Desc reverses the whole ascending result.
// SortOriginal ignores direction. The input slice is not modified.
func Sort(people []domain.Participant, option SortOption, dir Direction) []Row {
	rows := make([]Row, len(people))
	for i, p := range people {
		rows[i] = Row{OriginalIndex: i, Participant: p}
	}

	switch option {
	case SortPayment:
		// Unpaid first, stable partition.
		slices.SortStableFunc(rows, func(a, b Row) int {
			return boolRank(a.IsPaid()) - boolRank(b.IsPaid())
		})
	case SortAlphabetical:
		slices.SortStableFunc(rows, func(a, b Row) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortMembershipType:
		slices.SortStableFunc(rows, func(a, b Row) int {
			return rank(a.MembershipType) - rank(b.MembershipType)
		})
	default:
		return rows
	}

	if dir == Desc {
		slices.Reverse(rows)
	}
	return rows
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
