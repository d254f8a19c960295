package analysis

import "time"

// Summary folds a slice list into total valid, invalid and no-data
// durations. The three always sum to the window length exactly.
type Summary struct {
	Valid   time.Duration
	Invalid time.Duration
	NoData  time.Duration

	PercentValid   float64
	PercentInvalid float64
	PercentNoData  float64
}

// Summarize aggregates master values over the slices. Callers guarantee a
// non-zero window; NewWindow rejects the degenerate case.
func Summarize(w Window, slices []PartitionSlice) Summary {
	var s Summary
	for _, slice := range slices {
		switch slice.Master {
		case True:
			s.Valid += slice.Duration()
		case False:
			s.Invalid += slice.Duration()
		}
	}
	total := w.Duration()
	s.NoData = total - s.Valid - s.Invalid
	s.PercentValid = float64(s.Valid) / float64(total)
	s.PercentInvalid = float64(s.Invalid) / float64(total)
	s.PercentNoData = float64(s.NoData) / float64(total)
	return s
}
