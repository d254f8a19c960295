package analysis

import (
	"errors"
	"time"
)

// Window is the half-open analysis time range [From, Until).
type Window struct {
	From  time.Time
	Until time.Time
}

// NewWindow validates and builds a window. Zero-length windows are rejected.
func NewWindow(from, until time.Time) (Window, error) {
	if !until.After(from) {
		return Window{}, errors.New("analysis: window must end after it starts")
	}
	return Window{From: from, Until: until}, nil
}

// Duration is the window length.
func (w Window) Duration() time.Duration { return w.Until.Sub(w.From) }

// Interval is a half-open time range carrying a definite block value. Any
// instant of the window not covered by an interval is unknown.
type Interval struct {
	From  time.Time
	Until time.Time
	Value bool
}

// BlockIntervals is one block's validity timeline, ordered and
// non-overlapping.
type BlockIntervals struct {
	Alias     string
	Intervals []Interval
}
