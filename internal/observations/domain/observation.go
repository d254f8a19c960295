// Package observations defines the contracts of the road weather
// observation store: raw sensor samples, the interval extraction query, and
// name resolution.
package observations

import (
	"context"
	"errors"
	"time"
)

// DefaultGapTolerance is the policy constant for merging consecutive
// same-valued samples into one interval.
const DefaultGapTolerance = 30 * time.Minute

// ErrSensorNotFound indicates an unknown sensor name.
var ErrSensorNotFound = errors.New("observations: sensor not found")

// Observation is one raw sensor sample.
type Observation struct {
	Time  time.Time
	Value float64
}

// IntervalQuery asks for the validity timeline of one primary block over
// the analysis window.
type IntervalQuery struct {
	StationID    int
	SensorID     int
	Operator     string
	Value        string
	From         time.Time
	Until        time.Time
	GapTolerance time.Duration
}

// Interval is a half-open time range over which the queried comparison held
// the given value.
type Interval struct {
	From  time.Time
	Until time.Time
	Value bool
}

// IntervalSource extracts ordered, non-overlapping validity intervals for
// primary blocks.
type IntervalSource interface {
	Intervals(ctx context.Context, q IntervalQuery) ([]Interval, error)
}

// SensorResolver maps sensor names to store ids.
type SensorResolver interface {
	// ResolveSensorID returns the id for a normalized sensor name,
	// ErrSensorNotFound when the store does not know it.
	ResolveSensorID(ctx context.Context, name string) (int, error)
}

// ReservedWordSource lists relation names that condition identifiers must
// not collide with.
type ReservedWordSource interface {
	ReservedIdentifiers(ctx context.Context) ([]string, error)
}
