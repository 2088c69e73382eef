package clock

import "time"

// Clock stamps lastUpdated on roster mutations.
type Clock interface {
	Now() time.Time
}
