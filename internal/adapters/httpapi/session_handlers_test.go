package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	memclock "github.com/simplimarked/signup-api/internal/adapters/memory/clock"
	memrosterstore "github.com/simplimarked/signup-api/internal/adapters/memory/rosterstore"
	"github.com/simplimarked/signup-api/internal/app/session"
	"github.com/simplimarked/signup-api/internal/domain"
	"github.com/simplimarked/signup-api/internal/platform/metrics"
	"github.com/simplimarked/signup-api/internal/views"
)

const testRoster = "*Wednesday Sign-up*\n1. Alice (M)\n2. bob smith\n3. Carol (M)*\nWaitlist:\n4. Dana"

func newTestSessionRouter(t *testing.T) http.Handler {
	t.Helper()

	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	m := metrics.New()
	svc := session.NewService(memrosterstore.NewStore(), clk, session.Options{Metrics: m})
	n := 0
	svc.SetNewParticipantIDForTest(func() domain.ParticipantID {
		n++
		return domain.ParticipantID(fmt.Sprintf("p%d", n))
	})
	return NewRouterWithOptions(NewServer(svc, m), RouterOptions{
		ActorMiddleware: NewActorMiddleware("host"),
		Metrics:         m,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Buffer
	if body != "" {
		rd = bytes.NewBufferString(body)
	} else {
		rd = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{"text": testRoster})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var er errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body: %v (body=%s)", err, rec.Body.String())
	}
	return er
}

func TestSession_GetWithoutSession_404(t *testing.T) {
	t.Parallel()

	h := newTestSessionRouter(t)
	rec := do(t, h, http.MethodGet, "/session", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	er := decodeError(t, rec)
	if er.Error.Code != "SESSION_NOT_FOUND" {
		t.Fatalf("code=%q", er.Error.Code)
	}
	if !er.Error.RequestID.IsSpecified() {
		t.Fatalf("expected requestId in error body: %s", rec.Body.String())
	}
	if er.Error.Details.IsSpecified() {
		t.Fatalf("details should be omitted: %s", rec.Body.String())
	}
}

func TestSession_ParseThenGet(t *testing.T) {
	t.Parallel()

	h := newTestSessionRouter(t)
	rec := do(t, h, http.MethodPost, "/session/parse", parseBody(t), ActingUserHeader, "  Morgan ")
	if rec.Code != http.StatusCreated {
		t.Fatalf("parse status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created domain.Roster
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Date != "Wednesday Sign-up" || len(created.People) != 4 || created.LastUpdatedBy != "Morgan" {
		t.Fatalf("created=%+v", created)
	}

	rec = do(t, h, http.MethodGet, "/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"amount":null`) {
		t.Fatalf("expected null amounts in %s", rec.Body.String())
	}
}

func TestSession_ParseValidation(t *testing.T) {
	t.Parallel()

	h := newTestSessionRouter(t)
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"text":`, 422, "VALIDATION_ERROR"},
		{"missing text", `{}`, 422, "VALIDATION_ERROR"},
		{"blank text", `{"text":"  \n "}`, 422, "EMPTY_INPUT"},
		{"title only", `{"text":"Friday Signup"}`, 422, "NO_PARTICIPANTS_FOUND"},
	}
	for _, tc := range cases {
		rec := do(t, h, http.MethodPost, "/session/parse", tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: status=%d body=%s", tc.name, rec.Code, rec.Body.String())
		}
		if er := decodeError(t, rec); er.Error.Code != tc.code {
			t.Fatalf("%s: code=%q, want %q", tc.name, er.Error.Code, tc.code)
		}
	}
}

func TestSession_AmountAndToggleFlow(t *testing.T) {
	t.Parallel()

	h := newTestSessionRouter(t)
	if rec := do(t, h, http.MethodPost, "/session/parse", parseBody(t)); rec.Code != http.StatusCreated {
		t.Fatalf("parse status=%d", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/session/participants/p2/toggle", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("toggle unpaid status=%d body=%s", rec.Code, rec.Body.String())
	}
	if er := decodeError(t, rec); er.Error.Code != "REQUIRES_AMOUNT_ENTRY" {
		t.Fatalf("code=%q", er.Error.Code)
	}

	rec = do(t, h, http.MethodPut, "/session/participants/p2/amount", `{"amount":12.5}`, ActingUserHeader, "Riley")
	if rec.Code != http.StatusOK {
		t.Fatalf("amount status=%d body=%s", rec.Code, rec.Body.String())
	}
	var p domain.Participant
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Amount == nil || *p.Amount != 1250 || p.LastUpdatedBy != "Riley" {
		t.Fatalf("participant=%+v", p)
	}

	rec = do(t, h, http.MethodPost, "/session/participants/p2/toggle", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"paymentMethod":"et"`) {
		t.Fatalf("toggle status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"lastUpdatedBy":"host"`) {
		t.Fatalf("expected default actor attribution: %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/session/stats", "")
	var st views.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if st.Total != 4 || st.Paid != 2 || st.ETAmount != 1250 || st.CashAmount != 0 {
		t.Fatalf("stats=%+v", st)
	}

	rec = do(t, h, http.MethodPut, "/session/participants/p2/amount", `{"amount":null}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"amount":null`) {
		t.Fatalf("clear status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestSession_AmountValidation(t *testing.T) {
	t.Parallel()

	h := newTestSessionRouter(t)
	if rec := do(t, h, http.MethodPost, "/session/parse", parseBody(t)); rec.Code != http.StatusCreated {
		t.Fatalf("parse status=%d", rec.Code)
	}

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"absent amount", "/session/participants/p2/amount", `{}`, 422, "VALIDATION_ERROR"},
		{"negative", "/session/participants/p2/amount", `{"amount":-1}`, 422, "INVALID_AMOUNT"},
		{"above maximum", "/session/participants/p2/amount", `{"amount":1e17}`, 422, "INVALID_AMOUNT"},
		{"string amount", "/session/participants/p2/amount", `{"amount":"ten"}`, 422, "VALIDATION_ERROR"},
		{"unknown participant", "/session/participants/zzz/amount", `{"amount":5}`, 404, "PARTICIPANT_NOT_FOUND"},
	}
	for _, tc := range cases {
		rec := do(t, h, http.MethodPut, tc.path, tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: status=%d body=%s", tc.name, rec.Code, rec.Body.String())
		}
		if er := decodeError(t, rec); er.Error.Code != tc.code {
			t.Fatalf("%s: code=%q, want %q", tc.name, er.Error.Code, tc.code)
		}
	}
}

func TestSession_ViewSortsAndValidates(t *testing.T) {
	t.Parallel()

	h := newTestSessionRouter(t)
	if rec := do(t, h, http.MethodPost, "/session/parse", parseBody(t)); rec.Code != http.StatusCreated {
		t.Fatalf("parse status=%d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/session/view?sort=playerType&dir=desc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("view status=%d body=%s", rec.Code, rec.Body.String())
	}
	var v views.View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Sort != views.SortMembershipType || v.Direction != views.Desc {
		t.Fatalf("sort=%q dir=%q", v.Sort, v.Direction)
	}
	var got []string
	for _, r := range v.Rows {
		got = append(got, r.DisplayName)
	}
	// membership asc is Bob, Dana, Carol, Alice; desc reverses it.
	want := []string{"Alice", "Carol", "Dana", "Bob Smith"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("rows=%v, want %v", got, want)
	}

	rec = do(t, h, http.MethodGet, "/session/view?sort=price", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad sort status=%d", rec.Code)
	}
	er := decodeError(t, rec)
	details, err := er.Error.Details.Get()
	if err != nil || details["sort"] == nil {
		t.Fatalf("details=%v err=%v", details, err)
	}
}

func TestSession_Reset(t *testing.T) {
	t.Parallel()

	h := newTestSessionRouter(t)
	if rec := do(t, h, http.MethodPost, "/session/parse", parseBody(t)); rec.Code != http.StatusCreated {
		t.Fatalf("parse status=%d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/session", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("reset status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/session/stats", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("stats after reset status=%d", rec.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	h := newTestSessionRouter(t)
	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz status=%d body=%q", rec.Code, rec.Body.String())
	}
	_ = do(t, h, http.MethodGet, "/session", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rec.Code)
	}
	found := false
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if strings.HasPrefix(line, "signup_http_requests_total{") &&
			strings.Contains(line, `route="/session`) && strings.Contains(line, `status="404"`) {
			found = true
		}
	}
	if !found {
		t.Fatalf("request not recorded:\n%s", rec.Body.String())
	}
}
