package httpapi

import (
	"context"

	"github.com/simplimarked/signup-api/internal/domain"
)

type actorKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting user, or domain.DefaultActor when the
// request carried none.
func ActorFromContext(ctx context.Context) domain.Actor {
	v, _ := ctx.Value(actorKey{}).(domain.Actor)
	return domain.ActorOrDefault(v)
}
