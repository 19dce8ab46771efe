package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"fleet-route-planner/internal/adapters/store"
	"fleet-route-planner/internal/config"
	"fleet-route-planner/internal/ports"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// dbtool exports persisted solve runs from the local SQLite plan store into
// Postgres for downstream analysis.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}
	planDB := config.Get("PLAN_DB", "data/plans.db")

	pg, err := openPostgres(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	local, err := sql.Open("sqlite", planDB)
	if err != nil {
		log.Fatalf("open sqlite plan store %q: %v", planDB, err)
	}
	defer local.Close()

	if err := exportRuns(context.Background(), local, pg); err != nil {
		log.Fatal(err)
	}
}

// openPostgres dials the export target. The tool runs one short batch
// session, so a single verified connection is all it needs.
func openPostgres(databaseURL string) (*sql.DB, error) {
	pg, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open export target: %w", err)
	}
	pg.SetMaxOpenConns(1)
	if err := pg.Ping(); err != nil {
		pg.Close()
		return nil, fmt.Errorf("verify export target: %w", err)
	}
	return pg, nil
}

func exportRuns(ctx context.Context, local *sql.DB, pg *sql.DB) error {
	log.Println("Initializing Postgres schema...")
	if err := initPostgresSchema(ctx, pg); err != nil {
		return fmt.Errorf("export runs: %w", err)
	}
	log.Println("Schema ready.")

	runs, err := store.NewSqlitePlanStore(local).ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("export runs: %w", err)
	}
	log.Printf("Exporting %d run(s)...", len(runs))

	for _, run := range runs {
		if err := exportRun(ctx, pg, run); err != nil {
			return fmt.Errorf("export runs: run %s: %w", run.ID, err)
		}
	}
	log.Println("Export complete.")
	return nil
}

func initPostgresSchema(ctx context.Context, pg *sql.DB) error {
	_, err := pg.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS plan_runs (
        run_id     TEXT PRIMARY KEY,
        input_file TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    );
	CREATE TABLE IF NOT EXISTS plan_routes (
        run_id     TEXT NOT NULL REFERENCES plan_runs(run_id),
        phase      TEXT NOT NULL,
        vehicle_id INTEGER NOT NULL,
        markers    TEXT NOT NULL,
        arrivals   TEXT NOT NULL,
        makespan   DOUBLE PRECISION NOT NULL,
        cost       DOUBLE PRECISION NOT NULL
    );
	`)
	if err != nil {
		return fmt.Errorf("init postgres schema: %w", err)
	}
	return nil
}

func exportRun(ctx context.Context, pg *sql.DB, run ports.PlanRun) error {
	tx, err := pg.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO plan_runs (run_id, input_file, created_at)
    VALUES ($1, $2, $3)
    ON CONFLICT (run_id) DO NOTHING
	`, run.ID, run.InputFile, run.CreatedAt); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM plan_routes WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("clear routes: %w", err)
	}

	for _, r := range run.Routes {
		markers := make([]string, len(r.Markers))
		for i, m := range r.Markers {
			markers[i] = fmt.Sprintf("%d", m)
		}
		arrivals := make([]string, len(r.Arrivals))
		for i, a := range r.Arrivals {
			arrivals[i] = fmt.Sprintf("%g", a)
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO plan_routes (run_id, phase, vehicle_id, markers, arrivals, makespan, cost)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, run.ID, r.Phase, r.VehicleID,
			strings.Join(markers, " "), strings.Join(arrivals, " "),
			r.Makespan, r.Cost,
		); err != nil {
			return fmt.Errorf("insert route vehicle=%d: %w", r.VehicleID, err)
		}
	}

	return tx.Commit()
}
