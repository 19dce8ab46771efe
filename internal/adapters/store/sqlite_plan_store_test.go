package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"fleet-route-planner/internal/ports"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := InitSchema(db); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return db
}

func TestSaveAndListRuns(t *testing.T) {
	db := openTestDB(t)
	s := NewSqlitePlanStore(db)
	ctx := context.Background()

	run := ports.PlanRun{
		ID:        "run-1",
		InputFile: "instances/demo.txt",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Routes: []ports.PlanRoute{
			{
				Phase:     "static",
				VehicleID: 1,
				Markers:   []int{20001, 1, 2, 20001},
				Arrivals:  []float64{0, 0.2, 0.5, 1.0},
				Makespan:  0.5,
				Cost:      2,
			},
			{
				Phase:     "dynamic",
				VehicleID: 2,
				Markers:   []int{20002, 1, 30003, 20002},
				Arrivals:  []float64{0, 0.25, 0.5, 0.7635},
				Makespan:  0.25,
				Cost:      2,
			},
		},
	}

	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("run count = %d, want 1", len(runs))
	}

	got := runs[0]
	if got.ID != run.ID || got.InputFile != run.InputFile {
		t.Fatalf("run header = %+v, want %+v", got, run)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Fatalf("createdAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
	if len(got.Routes) != 2 {
		t.Fatalf("route count = %d, want 2", len(got.Routes))
	}

	// Routes come back ordered by phase then vehicle; "dynamic" < "static".
	dyn := got.Routes[0]
	if dyn.Phase != "dynamic" || dyn.VehicleID != 2 {
		t.Fatalf("first route = %+v, want dynamic vehicle 2", dyn)
	}
	if len(dyn.Markers) != 4 || dyn.Markers[2] != 30003 {
		t.Fatalf("markers = %v, want rendezvous marker 30003 preserved", dyn.Markers)
	}
	if len(dyn.Arrivals) != 4 || dyn.Arrivals[2] != 0.5 {
		t.Fatalf("arrivals = %v, want wait time 0.5 preserved", dyn.Arrivals)
	}
}

func TestSaveRunRejectsEmptyID(t *testing.T) {
	db := openTestDB(t)
	s := NewSqlitePlanStore(db)

	err := s.SaveRun(context.Background(), ports.PlanRun{})
	if err == nil {
		t.Fatal("expected error for empty run id")
	}
}
