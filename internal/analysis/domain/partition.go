package analysis

import (
	"sort"
	"time"
)

// PartitionSlice is one contiguous segment of the analysis window with a
// constant value per block and, after evaluation, a constant master value.
type PartitionSlice struct {
	From   time.Time
	Until  time.Time
	Values map[string]Tristate
	Master Tristate
}

// Duration is the slice length.
func (s PartitionSlice) Duration() time.Duration { return s.Until.Sub(s.From) }

// Reconcile computes the finest common partition of the window from the
// blocks' interval timelines. Every interval boundary inside the window
// becomes a slice boundary; a slice's block value is the value of the
// interval fully containing it, Unknown when no interval covers it. The
// returned slices exactly tile [w.From, w.Until).
func Reconcile(w Window, blocks []BlockIntervals) []PartitionSlice {
	boundarySet := map[time.Time]struct{}{
		w.From:  {},
		w.Until: {},
	}
	for _, b := range blocks {
		for _, iv := range b.Intervals {
			for _, t := range []time.Time{iv.From, iv.Until} {
				if t.After(w.From) && t.Before(w.Until) {
					boundarySet[t] = struct{}{}
				}
			}
		}
	}

	boundaries := make([]time.Time, 0, len(boundarySet))
	for t := range boundarySet {
		boundaries = append(boundaries, t)
	}
	sort.Slice(boundaries, func(i, j int) bool { return boundaries[i].Before(boundaries[j]) })

	// Intervals arrive ordered from the store; sort defensively so a
	// misbehaving source cannot break the containment lookup below.
	sorted := make([][]Interval, len(blocks))
	for i, b := range blocks {
		ivs := make([]Interval, len(b.Intervals))
		copy(ivs, b.Intervals)
		sort.Slice(ivs, func(a, z int) bool { return ivs[a].From.Before(ivs[z].From) })
		sorted[i] = ivs
	}
	cursors := make([]int, len(blocks))

	slices := make([]PartitionSlice, 0, len(boundaries)-1)
	for i := 0; i+1 < len(boundaries); i++ {
		from, until := boundaries[i], boundaries[i+1]
		if !until.After(from) {
			continue
		}
		values := make(map[string]Tristate, len(blocks))
		for bi, b := range blocks {
			values[b.Alias] = Unknown
			ivs := sorted[bi]
			for cursors[bi] < len(ivs) && !ivs[cursors[bi]].Until.After(from) {
				cursors[bi]++
			}
			if c := cursors[bi]; c < len(ivs) {
				iv := ivs[c]
				if !iv.From.After(from) && !iv.Until.Before(until) {
					values[b.Alias] = FromBool(iv.Value)
				}
			}
		}
		slices = append(slices, PartitionSlice{From: from, Until: until, Values: values})
	}
	return slices
}
