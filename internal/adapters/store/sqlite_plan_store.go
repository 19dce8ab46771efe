package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fleet-route-planner/internal/ports"
)

// SQLite backed store for solve runs. Stop sequences and arrival times are
// stored as space-separated text; markers keep the offset id scheme so a run
// round-trips without the problem instance.
type SqlitePlanStore struct {
	DB *sql.DB
}

func NewSqlitePlanStore(db *sql.DB) *SqlitePlanStore {
	return &SqlitePlanStore{DB: db}
}

// InitSchema creates the plan tables when they do not exist yet.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS plan_runs (
        run_id     TEXT PRIMARY KEY,
        input_file TEXT NOT NULL,
        created_at TEXT NOT NULL
    );
	CREATE TABLE IF NOT EXISTS plan_routes (
        run_id     TEXT NOT NULL REFERENCES plan_runs(run_id),
        phase      TEXT NOT NULL,
        vehicle_id INTEGER NOT NULL,
        markers    TEXT NOT NULL,
        arrivals   TEXT NOT NULL,
        makespan   REAL NOT NULL,
        cost       REAL NOT NULL
    );
	`)
	if err != nil {
		return fmt.Errorf("plan store: init schema: %w", err)
	}
	return nil
}

// SaveRun persists one solve run and all its routes in a transaction.
func (s *SqlitePlanStore) SaveRun(ctx context.Context, run ports.PlanRun) error {
	if s.DB == nil {
		return errors.New("plan store: db is nil")
	}
	if run.ID == "" {
		return errors.New("plan store: run id must not be empty")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("plan store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Fixed-width fractional seconds keep the text order of created_at
	// chronological, which ListRuns relies on.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO plan_runs (run_id, input_file, created_at) VALUES (?, ?, ?)`,
		run.ID, run.InputFile, run.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
	); err != nil {
		return fmt.Errorf("plan store: insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO plan_routes (run_id, phase, vehicle_id, markers, arrivals, makespan, cost)
    VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("plan store: prepare routes: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Routes {
		if _, err := stmt.ExecContext(ctx,
			run.ID, r.Phase, r.VehicleID,
			encodeInts(r.Markers), encodeFloats(r.Arrivals),
			r.Makespan, r.Cost,
		); err != nil {
			return fmt.Errorf("plan store: insert route vehicle=%d: %w", r.VehicleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("plan store: commit: %w", err)
	}
	return nil
}

// ListRuns returns every persisted run with its routes, oldest first.
func (s *SqlitePlanStore) ListRuns(ctx context.Context) ([]ports.PlanRun, error) {
	if s.DB == nil {
		return nil, errors.New("plan store: db is nil")
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT run_id, input_file, created_at FROM plan_runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("plan store: query runs: %w", err)
	}
	defer rows.Close()

	var runs []ports.PlanRun
	index := make(map[string]int)
	for rows.Next() {
		var run ports.PlanRun
		var created string
		if err := rows.Scan(&run.ID, &run.InputFile, &created); err != nil {
			return nil, fmt.Errorf("plan store: scan run: %w", err)
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("plan store: run %s has bad timestamp %q: %w", run.ID, created, err)
		}
		index[run.ID] = len(runs)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("plan store: iterate runs: %w", err)
	}

	routeRows, err := s.DB.QueryContext(ctx, `
	SELECT run_id, phase, vehicle_id, markers, arrivals, makespan, cost
    FROM plan_routes ORDER BY run_id, phase, vehicle_id`)
	if err != nil {
		return nil, fmt.Errorf("plan store: query routes: %w", err)
	}
	defer routeRows.Close()

	for routeRows.Next() {
		var runID, markers, arrivals string
		var r ports.PlanRoute
		if err := routeRows.Scan(&runID, &r.Phase, &r.VehicleID, &markers, &arrivals, &r.Makespan, &r.Cost); err != nil {
			return nil, fmt.Errorf("plan store: scan route: %w", err)
		}
		if r.Markers, err = decodeInts(markers); err != nil {
			return nil, fmt.Errorf("plan store: route for run %s: %w", runID, err)
		}
		if r.Arrivals, err = decodeFloats(arrivals); err != nil {
			return nil, fmt.Errorf("plan store: route for run %s: %w", runID, err)
		}
		i, ok := index[runID]
		if !ok {
			return nil, fmt.Errorf("plan store: route references unknown run %s", runID)
		}
		runs[i].Routes = append(runs[i].Routes, r)
	}
	if err := routeRows.Err(); err != nil {
		return nil, fmt.Errorf("plan store: iterate routes: %w", err)
	}

	return runs, nil
}

func encodeInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func decodeInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.Fields(s)
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("decode markers: %q is not an integer", f)
		}
		out[i] = n
	}
	return out, nil
}

func encodeFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func decodeFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("decode arrivals: %q is not a number", f)
		}
		out[i] = v
	}
	return out, nil
}
