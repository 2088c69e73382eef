// Package parser extracts a structured roster from signup text pasted out of a
// chat app: a title line followed by a numbered list of names with optional
// membership markers.
package parser

import (
	"strings"

	"github.com/google/uuid"

	"github.com/simplimarked/signup-api/internal/domain"
	clockport "github.com/simplimarked/signup-api/internal/ports/out/clock"
)

type Parser struct {
	clk clockport.Clock

	newID func() domain.ParticipantID
}

func New(clk clockport.Clock) *Parser {
	return &Parser{
		clk: clk,
		newID: func() domain.ParticipantID {
			return domain.ParticipantID(uuid.NewString())
		},
	}
}

// SetNewIDForTest overrides participant ID generation for deterministic tests.
// It should not be used in production code.
func (p *Parser) SetNewIDForTest(fn func() domain.ParticipantID) {
	if fn != nil {
		p.newID = fn
	}
}

// LineResult records how one non-blank line after the title was handled.
type LineResult struct {
	Line   int // 1-based position among non-blank lines
	Text   string
	Entry  Entry
	Reason SkipReason
}

// Explain classifies every line without building a roster. The first
// non-blank line is the title and is not included.
func Explain(text string) (title string, results []LineResult, err error) {
	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return "", nil, domain.ErrEmptyInput
	}
	results = make([]LineResult, 0, len(lines)-1)
	for i, line := range lines[1:] {
		e, reason := ClassifyLine(line)
		results = append(results, LineResult{Line: i + 2, Text: line, Entry: e, Reason: reason})
	}
	return ExtractTitle(lines[0]), results, nil
}

// Parse builds a roster from text. Participants appear in line order, members
// start paid, and every mutation field is attributed to actor.
//
// It fails with domain.ErrEmptyInput when text has no non-blank lines and with
// domain.ErrNoParticipantsFound when no line yields a participant.
func (p *Parser) Parse(text string, actor domain.Actor) (domain.Roster, error) {
	title, results, err := Explain(text)
	if err != nil {
		return domain.Roster{}, err
	}

	actor = domain.ActorOrDefault(actor)
	now := p.clk.Now()
	people := make([]domain.Participant, 0, len(results))
	for _, r := range results {
		if r.Reason != SkipNone {
			continue
		}
		people = append(people, domain.Participant{
			ID:             p.newID(),
			Name:           r.Entry.Name,
			MembershipType: r.Entry.Membership,
			Paid:           r.Entry.Membership == domain.MembershipMember,
			Amount:         nil,
			PaymentMethod:  domain.PaymentCash,
			LastUpdatedBy:  actor,
			LastUpdated:    now,
		})
	}
	if len(people) == 0 {
		return domain.Roster{}, domain.ErrNoParticipantsFound
	}

	return domain.Roster{
		Date:          title,
		People:        people,
		RawInput:      text,
		LastUpdated:   now,
		LastUpdatedBy: actor,
	}, nil
}

func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = domain.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
