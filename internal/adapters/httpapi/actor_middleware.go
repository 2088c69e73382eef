package httpapi

import (
	"net/http"
	"strings"

	"github.com/simplimarked/signup-api/internal/domain"
)

const ActingUserHeader = "X-Acting-User"

// NewActorMiddleware stores the acting user's display name in request context.
//
// The name comes from X-Acting-User. If the header is absent or blank, it
// falls back to defaultActor. The name is attribution only; it grants nothing.
func NewActorMiddleware(defaultActor domain.Actor) func(http.Handler) http.Handler {
	def := domain.ActorOrDefault(defaultActor)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := domain.Actor(strings.TrimSpace(r.Header.Get(ActingUserHeader)))
			if actor == "" {
				actor = def
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
