package analysis

import "time"

// Result is the evaluated output of one condition: the partition of the
// window with per-slice master values, the duration summary, and the actual
// extent of observed data. Results are rebuilt whole on every run.
type Result struct {
	ConditionID string
	Window      Window
	Slices      []PartitionSlice
	Summary     Summary

	// DataFrom and DataUntil bound the part of the window where at least one
	// block had a known value. Zero when no data was seen at all.
	DataFrom  time.Time
	DataUntil time.Time
}

// NewResult evaluates the expression over the reconciled slices and
// assembles the summary.
func NewResult(conditionID string, w Window, slices []PartitionSlice, expr Expr) *Result {
	Evaluate(expr, slices)
	r := &Result{
		ConditionID: conditionID,
		Window:      w,
		Slices:      slices,
		Summary:     Summarize(w, slices),
	}
	for _, s := range slices {
		known := false
		for _, v := range s.Values {
			if v != Unknown {
				known = true
				break
			}
		}
		if !known {
			continue
		}
		if r.DataFrom.IsZero() || s.From.Before(r.DataFrom) {
			r.DataFrom = s.From
		}
		if s.Until.After(r.DataUntil) {
			r.DataUntil = s.Until
		}
	}
	return r
}

// MasterIntervals re-expresses the master timeline as definite-valued
// intervals for consumption by secondary blocks of other conditions.
// Unknown slices yield no interval, so unknowns propagate as missing
// coverage.
func (r *Result) MasterIntervals() []Interval {
	var out []Interval
	for _, s := range r.Slices {
		if s.Master == Unknown {
			continue
		}
		value := s.Master == True
		if n := len(out); n > 0 && out[n-1].Until.Equal(s.From) && out[n-1].Value == value {
			out[n-1].Until = s.Until
			continue
		}
		out = append(out, Interval{From: s.From, Until: s.Until, Value: value})
	}
	return out
}
