package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"
	"github.com/oapi-codegen/runtime"

	"github.com/simplimarked/signup-api/internal/app/session"
	"github.com/simplimarked/signup-api/internal/domain"
	"github.com/simplimarked/signup-api/internal/platform/metrics"
	"github.com/simplimarked/signup-api/internal/views"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP adapter over the session service.
type Server struct {
	Session  *session.Service
	Metrics  *metrics.Metrics
	LiveOpts LiveOptions
}

func NewServer(sessionSvc *session.Service, m *metrics.Metrics) *Server {
	return &Server{Session: sessionSvc, Metrics: m}
}

type parseRequest struct {
	Text *string `json:"text"`
}

type setAmountRequest struct {
	Amount nullable.Nullable[float64] `json:"amount"`
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	roster, err := s.Session.Current(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

func (s *Server) GetSessionView(w http.ResponseWriter, r *http.Request) {
	var sortParam, dirParam *string
	if err := runtime.BindQueryParameter("form", true, false, "sort", r.URL.Query(), &sortParam); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid query parameter", map[string]any{"sort": err.Error()})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "dir", r.URL.Query(), &dirParam); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid query parameter", map[string]any{"dir": err.Error()})
		return
	}

	option, err := views.ParseSortOption(deref(sortParam))
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid sort option", map[string]any{
			"sort": "one of original, payment, alphabetical, membershipType",
		})
		return
	}
	dir, err := views.ParseDirection(deref(dirParam))
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid sort direction", map[string]any{
			"dir": "one of asc, desc",
		})
		return
	}

	v, err := s.Session.View(r.Context(), option, dir)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) GetSessionStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Session.Stats(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) ParseSession(w http.ResponseWriter, r *http.Request) {
	var body parseRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request body", map[string]any{"body": err.Error()})
		return
	}
	if body.Text == nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "missing text", map[string]any{"text": "required"})
		return
	}

	roster, err := s.Session.Parse(r.Context(), ActorFromContext(r.Context()), *body.Text)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, roster)
}

func (s *Server) SetParticipantAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.participantID(w, r)
	if !ok {
		return
	}

	var body setAmountRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request body", map[string]any{"body": err.Error()})
		return
	}
	if !body.Amount.IsSpecified() {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "missing amount", map[string]any{"amount": "required; use null to clear"})
		return
	}

	var amount *domain.Money
	if !body.Amount.IsNull() {
		v, _ := body.Amount.Get()
		m, err := domain.MoneyFromFloat(v)
		if err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "INVALID_AMOUNT", "amount must be between 0 and "+domain.MaxMoney.String(), map[string]any{"amount": "must be >= 0 and <= " + domain.MaxMoney.String()})
			return
		}
		amount = &m
	}

	p, err := s.Session.SetAmount(r.Context(), ActorFromContext(r.Context()), id, amount)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) ToggleParticipantPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.participantID(w, r)
	if !ok {
		return
	}
	p, err := s.Session.TogglePayment(r.Context(), ActorFromContext(r.Context()), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Reset(r.Context(), ActorFromContext(r.Context())); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) participantID(w http.ResponseWriter, r *http.Request) (domain.ParticipantID, bool) {
	var id domain.ParticipantID
	err := runtime.BindStyledParameterWithOptions("simple", "participantId", chi.URLParam(r, "participantId"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || id == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid participantId", map[string]any{"participantId": "required"})
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
