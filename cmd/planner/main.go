package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"fleet-route-planner/internal/adapters/loader"
	"fleet-route-planner/internal/adapters/report"
	"fleet-route-planner/internal/adapters/store"
	"fleet-route-planner/internal/config"
	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/network"
	"fleet-route-planner/internal/platform/obs"
	"fleet-route-planner/internal/ports"
	"fleet-route-planner/internal/services"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// main is the application composition root. It loads an instance, runs the
// two solve phases, validates both route sets and prints the results.
// Exit codes: 0 on solve + validate success, 1 on load failure, 2 on
// validation failure.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input_file>\n", os.Args[0])
		os.Exit(1)
	}
	inputFile := os.Args[1]

	problem, net, err := loader.Load(inputFile)
	if err != nil {
		log.Printf("load failed: %v", err)
		os.Exit(1)
	}
	log.Printf("loaded input=%s initial=%d extra=%d depots=%d vehicles=%d",
		inputFile, problem.InitialCount, problem.ExtraCount, len(problem.Depots), len(problem.Vehicles))

	oracle := network.NewOracle(net, network.DefaultPeakWindows())
	seed := config.GetInt64("GA_SEED", 1)
	solver := services.NewSolver(problem, oracle, seed)
	printer := report.NewPrinter(os.Stdout)

	done := obs.Time("solve_static")
	static := solver.SolveStatic()
	done(nil)
	printer.PrintStatic(problem, static)

	done = obs.Time("solve_dynamic")
	dynamic := solver.SolveDynamic(static)
	done(nil)
	printer.PrintDynamic(problem, static, dynamic)

	validator := &services.Validator{Problem: problem, Oracle: oracle}
	staticRes := validator.ValidateStatic(static.Routes)
	dynamicRes := validator.ValidateDynamic(static.Routes, dynamic.Routes, static.Makespan)
	printer.PrintValidation("static", staticRes)
	printer.PrintValidation("dynamic", dynamicRes)

	if planDB := config.Get("PLAN_DB", ""); planDB != "" {
		if err := persistRun(planDB, inputFile, problem, static, dynamic); err != nil {
			log.Printf("persist failed: %v", err)
		}
	}

	if !staticRes.OK() || !dynamicRes.OK() {
		os.Exit(2)
	}
}

// persistRun saves both phases of the solve into the SQLite plan store.
func persistRun(dbPath, inputFile string, problem *domain.Problem, static, dynamic services.Solution) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("persist run: open sqlite database %q: %w", dbPath, err)
	}
	defer db.Close()

	if err := store.InitSchema(db); err != nil {
		return fmt.Errorf("persist run: %w", err)
	}

	run := ports.PlanRun{
		ID:        uuid.NewString(),
		InputFile: inputFile,
		CreatedAt: time.Now(),
	}
	run.Routes = append(run.Routes, planRoutes("static", problem, static)...)
	run.Routes = append(run.Routes, planRoutes("dynamic", problem, dynamic)...)

	planStore := store.NewSqlitePlanStore(db)
	if err := planStore.SaveRun(context.Background(), run); err != nil {
		return fmt.Errorf("persist run: %w", err)
	}
	log.Printf("persisted run=%s routes=%d db=%s", run.ID, len(run.Routes), dbPath)
	return nil
}

func planRoutes(phase string, problem *domain.Problem, sol services.Solution) []ports.PlanRoute {
	var out []ports.PlanRoute
	for _, r := range sol.Routes {
		if r.Empty() {
			continue
		}
		markers := make([]int, len(r.Stops))
		for i, s := range r.Stops {
			markers[i] = s.Marker()
		}
		cost := 0.0
		if v, ok := problem.VehicleByID(r.VehicleID); ok {
			cost = v.UnitCost * float64(r.TaskCount())
		}
		out = append(out, ports.PlanRoute{
			Phase:     phase,
			VehicleID: r.VehicleID,
			Markers:   markers,
			Arrivals:  append([]float64(nil), r.Arrivals...),
			Makespan:  r.Makespan(),
			Cost:      cost,
		})
	}
	return out
}
