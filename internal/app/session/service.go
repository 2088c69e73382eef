package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/simplimarked/signup-api/internal/domain"
	"github.com/simplimarked/signup-api/internal/parser"
	"github.com/simplimarked/signup-api/internal/platform/metrics"
	"github.com/simplimarked/signup-api/internal/ports/out/clock"
	"github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
	"github.com/simplimarked/signup-api/internal/views"
)

const DefaultPath domain.SessionPath = "session"

type Options struct {
	// Path is the store document shared by every client. Defaults to DefaultPath.
	Path    domain.SessionPath
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Service runs session commands. Every mutation is a whole-document
// read-modify-write against the store and the last write wins; commands are
// not serialized against each other.
type Service struct {
	store   rosterstore.Store
	clk     clock.Clock
	parser  *parser.Parser
	path    domain.SessionPath
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewService(store rosterstore.Store, clk clock.Clock, opts Options) *Service {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:   store,
		clk:     clk,
		parser:  parser.New(clk),
		path:    opts.Path,
		metrics: opts.Metrics,
		log:     opts.Logger.With("path", string(opts.Path)),
	}
}

// SetNewParticipantIDForTest overrides participant ID generation for
// deterministic tests. It should not be used in production code.
func (s *Service) SetNewParticipantIDForTest(fn func() domain.ParticipantID) {
	s.parser.SetNewIDForTest(fn)
}

func (s *Service) Path() domain.SessionPath { return s.path }

// Parse builds a roster from text and replaces the current one.
func (s *Service) Parse(ctx context.Context, actor domain.Actor, text string) (domain.Roster, error) {
	actor = domain.ActorOrDefault(actor)
	r, err := s.parser.Parse(text, actor)
	if err != nil {
		return domain.Roster{}, s.fail("parse", actor, "", err)
	}
	if err := s.store.Write(ctx, s.path, &r); err != nil {
		return domain.Roster{}, s.fail("parse", actor, "", err)
	}
	s.metrics.SetParticipants(len(r.People))
	s.ok("parse", actor, "", "participants", len(r.People), "title", r.Date)
	return r, nil
}

// SetAmount replaces a participant's amount. A nil amount clears it.
func (s *Service) SetAmount(ctx context.Context, actor domain.Actor, id domain.ParticipantID, amount *domain.Money) (domain.Participant, error) {
	actor = domain.ActorOrDefault(actor)
	p, err := s.updateParticipant(ctx, actor, id, func(p domain.Participant, now time.Time) (domain.Participant, error) {
		return domain.SetAmount(p, amount, actor, now)
	})
	if err != nil {
		return domain.Participant{}, s.fail("set_amount", actor, id, err)
	}
	s.ok("set_amount", actor, id, "amount", amountAttr(amount))
	return p, nil
}

// TogglePayment flips a member's paid flag or a paid participant's method.
func (s *Service) TogglePayment(ctx context.Context, actor domain.Actor, id domain.ParticipantID) (domain.Participant, error) {
	actor = domain.ActorOrDefault(actor)
	p, err := s.updateParticipant(ctx, actor, id, func(p domain.Participant, now time.Time) (domain.Participant, error) {
		return domain.TogglePayment(p, actor, now)
	})
	if err != nil {
		return domain.Participant{}, s.fail("toggle", actor, id, err)
	}
	s.ok("toggle", actor, id, "label", p.PaymentLabel())
	return p, nil
}

// Reset deletes the roster. Resetting an empty session succeeds.
func (s *Service) Reset(ctx context.Context, actor domain.Actor) error {
	actor = domain.ActorOrDefault(actor)
	if err := s.store.Write(ctx, s.path, nil); err != nil {
		return s.fail("reset", actor, "", err)
	}
	s.metrics.SetParticipants(0)
	s.ok("reset", actor, "")
	return nil
}

func (s *Service) Current(ctx context.Context) (domain.Roster, error) {
	r, err := s.load(ctx)
	if err != nil {
		return domain.Roster{}, mapError(err)
	}
	return *r, nil
}

func (s *Service) View(ctx context.Context, option views.SortOption, dir views.Direction) (views.View, error) {
	r, err := s.Current(ctx)
	if err != nil {
		return views.View{}, err
	}
	return views.Build(r, option, dir), nil
}

func (s *Service) Stats(ctx context.Context) (views.Stats, error) {
	r, err := s.Current(ctx)
	if err != nil {
		return views.Stats{}, err
	}
	return views.Aggregate(r.People), nil
}

// Subscribe streams the session document until ctx is done. A nil roster
// means no session is active.
func (s *Service) Subscribe(ctx context.Context) (<-chan rosterstore.Snapshot, error) {
	ch, err := s.store.Subscribe(ctx, s.path)
	if err != nil {
		return nil, mapError(err)
	}
	return ch, nil
}

func (s *Service) load(ctx context.Context) (*domain.Roster, error) {
	r, err := s.store.Load(ctx, s.path)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errSessionNotFound()
	}
	return r, nil
}

// updateParticipant loads the roster, applies fn to one participant and writes
// the whole document back. Nothing is written when fn fails.
func (s *Service) updateParticipant(
	ctx context.Context,
	actor domain.Actor,
	id domain.ParticipantID,
	fn func(domain.Participant, time.Time) (domain.Participant, error),
) (domain.Participant, error) {
	r, err := s.load(ctx)
	if err != nil {
		return domain.Participant{}, err
	}
	i, ok := r.Find(id)
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	now := s.clk.Now()
	p, err := fn(r.People[i], now)
	if err != nil {
		return domain.Participant{}, err
	}
	r.People[i] = p
	r.LastUpdated = now
	r.LastUpdatedBy = actor
	if err := s.store.Write(ctx, s.path, r); err != nil {
		return domain.Participant{}, err
	}
	return p, nil
}

func (s *Service) ok(command string, actor domain.Actor, id domain.ParticipantID, attrs ...any) {
	s.metrics.ObserveCommand(command, "ok")
	base := []any{"command", command, "actor", string(actor)}
	if id != "" {
		base = append(base, "participant_id", string(id))
	}
	s.log.Info("session command", append(base, attrs...)...)
}

func (s *Service) fail(command string, actor domain.Actor, id domain.ParticipantID, err error) error {
	err = mapError(err)
	code := Code(err)
	s.metrics.ObserveCommand(command, code)

	attrs := []any{"command", command, "actor", string(actor), "code", code, "error", err}
	if id != "" {
		attrs = append(attrs, "participant_id", string(id))
	}
	if code == "SYNC_FAILURE" || code == "INTERNAL" {
		s.log.Error("session command failed", attrs...)
	} else {
		s.log.Warn("session command rejected", attrs...)
	}
	return err
}

func amountAttr(m *domain.Money) any {
	if m == nil {
		return nil
	}
	return m.String()
}
