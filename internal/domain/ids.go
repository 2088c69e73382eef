package domain

// ParticipantID identifies a signed-up person within one roster.
// It is opaque and generated at parse time, never derived from the name.
type ParticipantID string

// SessionPath addresses a roster document in the replicated store.
type SessionPath string

// Actor is the freeform display name of whoever performs a mutation.
type Actor string

// DefaultActor is recorded when no display name was supplied.
const DefaultActor Actor = "user"

// ActorOrDefault normalizes whitespace in a and falls back to DefaultActor
// when nothing is left.
func ActorOrDefault(a Actor) Actor {
	if v := NormalizeHumanName(string(a)); v != "" {
		return Actor(v)
	}
	return DefaultActor
}
