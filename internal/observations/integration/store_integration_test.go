package integration_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	observations "github.com/webbidevaajat/tsatool-app/internal/observations/domain"
	obspostgres "github.com/webbidevaajat/tsatool-app/internal/observations/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestStoreIntervals_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	setup := []string{
		`CREATE TEMP TABLE test_sensors (id integer PRIMARY KEY, name text NOT NULL)`,
		`CREATE TEMP TABLE test_statobs (id bigserial PRIMARY KEY, tfrom timestamptz NOT NULL, statid integer NOT NULL)`,
		`CREATE TEMP TABLE test_seobs (obsid bigint NOT NULL REFERENCES test_statobs (id), seid integer NOT NULL, seval real NOT NULL)`,
		`INSERT INTO test_sensors (id, name) VALUES (7, 'kitka3_luku')`,
	}
	for _, stmt := range setup {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	base := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	values := []float64{0.5, 0.5, 0.1, 0.1}
	for i, v := range values {
		var obsID int64
		err := db.QueryRowContext(ctx,
			`INSERT INTO test_statobs (tfrom, statid) VALUES ($1, $2) RETURNING id`,
			base.Add(time.Duration(i*10)*time.Minute), 1122).Scan(&obsID)
		if err != nil {
			t.Fatalf("insert statobs: %v", err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO test_seobs (obsid, seid, seval) VALUES ($1, $2, $3)`, obsID, 7, v); err != nil {
			t.Fatalf("insert seobs: %v", err)
		}
	}

	store := obspostgres.NewStore(db,
		obspostgres.WithStatObsTable("test_statobs"),
		obspostgres.WithSeObsTable("test_seobs"),
		obspostgres.WithSensorsTable("test_sensors"),
	)

	sensorID, err := store.ResolveSensorID(ctx, "Kitka3_Luku")
	if err != nil {
		t.Fatalf("resolve sensor: %v", err)
	}
	if sensorID != 7 {
		t.Fatalf("expected sensor id 7, got %d", sensorID)
	}
	if _, err := store.ResolveSensorID(ctx, "tuntematon"); !errors.Is(err, observations.ErrSensorNotFound) {
		t.Fatalf("expected ErrSensorNotFound, got %v", err)
	}

	intervals, err := store.Intervals(ctx, observations.IntervalQuery{
		StationID:    1122,
		SensorID:     sensorID,
		Operator:     ">=",
		Value:        "0.30",
		From:         base,
		Until:        base.Add(2 * time.Hour),
		GapTolerance: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("intervals: %v", err)
	}
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %v", intervals)
	}
	if !intervals[0].Value || !intervals[0].Until.Equal(base.Add(20*time.Minute)) {
		t.Fatalf("unexpected first interval %v", intervals[0])
	}
	if intervals[1].Value || !intervals[1].From.Equal(base.Add(20*time.Minute)) {
		t.Fatalf("unexpected second interval %v", intervals[1])
	}

	reserved, err := store.ReservedIdentifiers(ctx)
	if err != nil {
		t.Fatalf("reserved identifiers: %v", err)
	}
	found := false
	for _, name := range reserved {
		if name == "test_statobs" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected configured table in reserved list, got %v", reserved)
	}
}
