package clock

import "time"

// SystemClock returns the current wall-clock time in UTC, truncated to the
// millisecond so stamps survive every store encoding unchanged.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
