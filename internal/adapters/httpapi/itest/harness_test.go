package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/simplimarked/signup-api/internal/adapters/httpapi"
	memclock "github.com/simplimarked/signup-api/internal/adapters/memory/clock"
	memrosterstore "github.com/simplimarked/signup-api/internal/adapters/memory/rosterstore"
	pgrosterstore "github.com/simplimarked/signup-api/internal/adapters/postgres/rosterstore"
	postgres_testutil "github.com/simplimarked/signup-api/internal/adapters/postgres/testutil"
	sqliterosterstore "github.com/simplimarked/signup-api/internal/adapters/sqlite/rosterstore"
	"github.com/simplimarked/signup-api/internal/app/session"
	"github.com/simplimarked/signup-api/internal/domain"
	"github.com/simplimarked/signup-api/internal/platform/metrics"
	rosterstoreport "github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendSQLite   backend = "sqlite"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory, backendSQLite}
	case "sqlite":
		return []backend{backendSQLite}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendSQLite, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|sqlite|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var store rosterstoreport.Store
	switch b {
	case backendPostgres:
		s := pgrosterstore.NewStore(postgres_testutil.OpenMigratedPool(t))
		t.Cleanup(s.Close)
		store = s
	case backendSQLite:
		s, err := sqliterosterstore.New(filepath.Join(t.TempDir(), "itest.db"))
		if err != nil {
			t.Fatalf("sqlite store: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		store = s
	case backendMemory:
		s := memrosterstore.NewStore()
		t.Cleanup(s.Close)
		store = s
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	m := metrics.New()
	// A fresh path per test keeps shared databases isolated.
	svc := session.NewService(store, clk, session.Options{
		Path:    domain.SessionPath("itest-" + uuid.NewString()),
		Metrics: m,
	})
	handler := httpapi.NewRouterWithOptions(httpapi.NewServer(svc, m), httpapi.RouterOptions{
		ActorMiddleware: httpapi.NewActorMiddleware("itest"),
		Metrics:         m,
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, actor string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if actor != "" {
		req.Header.Set(httpapi.ActingUserHeader, actor)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
	if got.Error.RequestID == "" {
		t.Fatalf("expected error.requestId; body=%s", string(body))
	}
}
