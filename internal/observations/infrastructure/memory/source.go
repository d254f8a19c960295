// Package memory provides an in-memory observation store for tests and
// demos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	observations "github.com/webbidevaajat/tsatool-app/internal/observations/domain"
)

type seriesKey struct {
	stationID int
	sensorID  int
}

// Source keeps sensor samples in memory and serves the same contracts as
// the Postgres store.
type Source struct {
	mu       sync.RWMutex
	series   map[seriesKey][]observations.Observation
	sensors  map[string]int
	reserved []string
}

// NewSource constructs an empty source with the stock reserved words.
func NewSource() *Source {
	return &Source{
		series:   make(map[seriesKey][]observations.Observation),
		sensors:  make(map[string]int),
		reserved: []string{"stations", "statobs", "sensors", "seobs"},
	}
}

// RegisterSensor maps a sensor name to an id.
func (s *Source) RegisterSensor(name string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensors[strings.ToLower(name)] = id
}

// AddObservations appends samples to a station sensor series.
func (s *Source) AddObservations(stationID, sensorID int, samples ...observations.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seriesKey{stationID: stationID, sensorID: sensorID}
	s.series[key] = append(s.series[key], samples...)
	sort.Slice(s.series[key], func(i, j int) bool {
		return s.series[key][i].Time.Before(s.series[key][j].Time)
	})
}

// Intervals folds the stored series into validity intervals.
func (s *Source) Intervals(_ context.Context, q observations.IntervalQuery) ([]observations.Interval, error) {
	s.mu.RLock()
	samples := s.series[seriesKey{stationID: q.StationID, sensorID: q.SensorID}]
	s.mu.RUnlock()
	return observations.MergeObservations(samples, q)
}

// ResolveSensorID maps a sensor name to its registered id.
func (s *Source) ResolveSensorID(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sensors[strings.ToLower(name)]
	if !ok {
		return 0, observations.ErrSensorNotFound
	}
	return id, nil
}

// ReservedIdentifiers lists the fixed reserved words.
func (s *Source) ReservedIdentifiers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.reserved))
	copy(out, s.reserved)
	return out, nil
}
