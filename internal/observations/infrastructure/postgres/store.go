// Package postgres implements the observation store contracts on the road
// weather schema: stations, sensors, statobs and seobs.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	observations "github.com/webbidevaajat/tsatool-app/internal/observations/domain"
)

const (
	defaultStatObsTable = "statobs"
	defaultSeObsTable   = "seobs"
	defaultSensorsTable = "sensors"
)

// Store is a Postgres implementation of the observation store.
type Store struct {
	db           *sql.DB
	statObsTable string
	seObsTable   string
	sensorsTable string
}

// Option configures the store.
type Option func(*Store)

// WithStatObsTable overrides the station observation table name.
func WithStatObsTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.statObsTable = table
		}
	}
}

// WithSeObsTable overrides the sensor observation table name.
func WithSeObsTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.seObsTable = table
		}
	}
}

// WithSensorsTable overrides the sensor metadata table name.
func WithSensorsTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.sensorsTable = table
		}
	}
}

// NewStore constructs a store.
func NewStore(db *sql.DB, opts ...Option) *Store {
	store := &Store{
		db:           db,
		statObsTable: defaultStatObsTable,
		seObsTable:   defaultSeObsTable,
		sensorsTable: defaultSensorsTable,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Intervals loads the raw sample series of one station sensor over the
// window and folds it into validity intervals. The comparison and the
// gap-tolerance merge run here rather than in the database so they stay
// unit-testable.
func (s *Store) Intervals(ctx context.Context, q observations.IntervalQuery) ([]observations.Interval, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("observation store: nil db")
	}

	query := fmt.Sprintf(`
SELECT so.tfrom, se.seval
FROM %s so
JOIN %s se ON se.obsid = so.id
WHERE so.statid = $1 AND se.seid = $2 AND so.tfrom >= $3 AND so.tfrom < $4
ORDER BY so.tfrom ASC`, s.statObsTable, s.seObsTable)

	rows, err := s.db.QueryContext(ctx, query, q.StationID, q.SensorID, q.From, q.Until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []observations.Observation
	for rows.Next() {
		var obs observations.Observation
		if err := rows.Scan(&obs.Time, &obs.Value); err != nil {
			return nil, err
		}
		obs.Time = obs.Time.UTC()
		samples = append(samples, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return observations.MergeObservations(samples, q)
}

// ResolveSensorID maps a normalized sensor name to its id.
func (s *Store) ResolveSensorID(ctx context.Context, name string) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("observation store: nil db")
	}
	if name == "" {
		return 0, errors.New("observation store: empty sensor name")
	}

	query := fmt.Sprintf(`
SELECT id
FROM %s
WHERE lower(name) = $1
LIMIT 1`, s.sensorsTable)

	var id int
	if err := s.db.QueryRowContext(ctx, query, strings.ToLower(name)).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, observations.ErrSensorNotFound
		}
		return 0, err
	}
	return id, nil
}

// ReservedIdentifiers lists the public relation names of the store schema,
// used to reject condition identifiers that would collide with them.
func (s *Store) ReservedIdentifiers(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("observation store: nil db")
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = 'public'
ORDER BY table_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{s.statObsTable, s.seObsTable, s.sensorsTable, "stations"}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
