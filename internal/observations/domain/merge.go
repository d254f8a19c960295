package observations

import "time"

// MergeObservations folds a time-ordered sample series into validity
// intervals for the query's comparison. Consecutive samples with the same
// outcome merge into one interval while their spacing stays within the gap
// tolerance. A sample's coverage extends to the earliest of the next
// sample, the sample time plus the gap tolerance, and the window end; an
// outcome flip within tolerance cuts over exactly at the new sample.
func MergeObservations(samples []Observation, q IntervalQuery) ([]Interval, error) {
	gap := q.GapTolerance
	if gap <= 0 {
		gap = DefaultGapTolerance
	}

	var intervals []Interval
	var open bool
	var current Interval
	var lastSeen time.Time

	closeAt := func(end time.Time) {
		if end.After(q.Until) {
			end = q.Until
		}
		current.Until = end
		if current.Until.After(current.From) {
			intervals = append(intervals, current)
		}
		open = false
	}

	for _, sample := range samples {
		if sample.Time.Before(q.From) || !sample.Time.Before(q.Until) {
			continue
		}
		outcome, err := Compare(sample.Value, q.Operator, q.Value)
		if err != nil {
			return nil, err
		}
		switch {
		case !open:
		case sample.Time.Sub(lastSeen) > gap:
			closeAt(lastSeen.Add(gap))
		case outcome != current.Value:
			closeAt(sample.Time)
		}
		if !open {
			current = Interval{From: sample.Time, Value: outcome}
			open = true
		}
		lastSeen = sample.Time
	}
	if open {
		closeAt(lastSeen.Add(gap))
	}
	return intervals, nil
}
