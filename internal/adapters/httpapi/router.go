package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/simplimarked/signup-api/internal/platform/metrics"
)

type RouterOptions struct {
	// ActorMiddleware resolves the acting user. Defaults to
	// NewActorMiddleware(domain.DefaultActor).
	ActorMiddleware func(http.Handler) http.Handler
	Metrics         *metrics.Metrics
}

func NewRouter(s *Server) http.Handler {
	return NewRouterWithOptions(s, RouterOptions{})
}

// NewRouterWithOptions constructs the API HTTP router.
func NewRouterWithOptions(s *Server, opts RouterOptions) http.Handler {
	if opts.ActorMiddleware == nil {
		opts.ActorMiddleware = NewActorMiddleware("")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(opts.Metrics))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/session", func(r chi.Router) {
		r.Use(opts.ActorMiddleware)

		r.Get("/", s.GetSession)
		r.Delete("/", s.ResetSession)
		r.Get("/view", s.GetSessionView)
		r.Get("/stats", s.GetSessionStats)
		r.Post("/parse", s.ParseSession)
		r.Put("/participants/{participantId}/amount", s.SetParticipantAmount)
		r.Post("/participants/{participantId}/toggle", s.ToggleParticipantPayment)
		r.Get("/live", s.Live)
	})
	return r
}

// requestLogger logs one line per request and records it in metrics under the
// matched route pattern.
func requestLogger(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			d := time.Since(start)
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTP(route, r.Method, status, d)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", d.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			}
			switch {
			case status >= 500:
				slog.Error("http request", attrs...)
			case status >= 400:
				slog.Warn("http request", attrs...)
			default:
				slog.Info("http request", attrs...)
			}
		})
	}
}
