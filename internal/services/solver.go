package services

import (
	"log"
	"sort"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/ports"
)

// Aggregated outcome of one solve phase. Routes holds one entry per vehicle;
// idle vehicles get the degenerate depot-depot route.
type Solution struct {
	Routes        map[int]domain.Route
	Makespan      float64 // latest arrival at a real task
	MaxCompletion float64 // latest arrival including depot returns
	TotalCost     float64
	TasksServed   int
}

// Orchestrates the full pipeline: depot assignment, static GA, dynamic
// re-planning and route materialization. The solver owns the RNG seeding; a
// given seed and input always reproduce the same plans.
type Solver struct {
	Problem       *domain.Problem
	Oracle        ports.TravelOracle
	StaticParams  GAParams
	DynamicParams GAParams
	Seed          int64
}

func NewSolver(problem *domain.Problem, oracle ports.TravelOracle, seed int64) *Solver {
	return &Solver{
		Problem:       problem,
		Oracle:        oracle,
		StaticParams:  StaticGAParams(),
		DynamicParams: DynamicGAParams(),
		Seed:          seed,
	}
}

// SolveStatic assigns initial demands to depots, partitions each depot's
// demand across its fleet with the genetic optimizer and builds the
// congestion-free routes.
func (s *Solver) SolveStatic() Solution {
	dropped := AssignDepots(s.Problem, s.Oracle)
	for _, id := range dropped {
		log.Printf("assign depots: task=%d has no feasible depot, dropped", id)
	}
	s.logDepotCounts()

	ga := NewStaticGA(s.Problem, s.Oracle, s.StaticParams, s.Seed)
	assignment := ga.Run()

	constructor := &RouteConstructor{Problem: s.Problem, Oracle: s.Oracle}
	byVehicle := groupAssignment(assignment)

	routes := make(map[int]domain.Route, len(s.Problem.Vehicles))
	for _, v := range s.Problem.Vehicles {
		routes[v.ID] = constructor.BuildStatic(v, byVehicle[v.ID])
	}

	return s.summarize(routes)
}

// SolveDynamic re-plans after congestion is revealed. When nothing is
// delayed and no extra demand exists, or when the dynamic optimizer cannot
// seed a population, the static solution is returned unchanged.
func (s *Solver) SolveDynamic(static Solution) Solution {
	staticMakespan := static.Makespan
	delayed := IdentifyDelayedTasks(s.Problem, s.Oracle, static.Routes, staticMakespan)
	extras := s.Problem.ExtraTasks()
	log.Printf("dynamic: delayed_tasks=%d new_tasks=%d", len(delayed), len(extras))

	if len(delayed) == 0 && len(extras) == 0 {
		log.Printf("dynamic: nothing to reschedule, keeping static plan")
		return static
	}

	ga := NewDynamicGA(s.Problem, s.Oracle, static.Routes, staticMakespan, delayed, s.DynamicParams, s.Seed)
	assignment, ok := ga.Run()
	if !ok {
		log.Printf("dynamic: could not seed a feasible population, keeping static plan")
		return static
	}

	routes, ok := NewCooperativePlanner(s.Problem, s.Oracle).PlanRoutes(assignment)
	if !ok {
		log.Printf("dynamic: winning assignment failed route construction, keeping static plan")
		return static
	}
	for _, v := range s.Problem.Vehicles {
		if _, present := routes[v.ID]; !present {
			routes[v.ID] = degenerateRoute(v)
		}
	}

	return s.summarize(routes)
}

func groupAssignment(assignment Assignment) map[int][]int {
	byVehicle := make(map[int][]int)
	for taskID, vehicleID := range assignment {
		byVehicle[vehicleID] = append(byVehicle[vehicleID], taskID)
	}
	for _, ids := range byVehicle {
		sort.Ints(ids)
	}
	return byVehicle
}

func (s *Solver) summarize(routes map[int]domain.Route) Solution {
	sol := Solution{Routes: routes}
	for _, r := range routes {
		if r.Empty() {
			continue
		}
		if m := r.Makespan(); m > sol.Makespan {
			sol.Makespan = m
		}
		if c := r.CompletionTime(); c > sol.MaxCompletion {
			sol.MaxCompletion = c
		}
		v, ok := s.Problem.VehicleByID(r.VehicleID)
		if !ok {
			continue
		}
		n := r.TaskCount()
		sol.TasksServed += n
		sol.TotalCost += v.UnitCost * float64(n)
	}
	return sol
}

func (s *Solver) logDepotCounts() {
	counts := make(map[int]int)
	for _, t := range s.Problem.InitialTasks() {
		if t.DepotID != 0 {
			counts[t.DepotID]++
		}
	}
	for _, d := range s.Problem.Depots {
		kind := domain.KindTruck
		if vs := s.Problem.DepotVehicles(d.ID); len(vs) > 0 {
			kind = vs[0].Kind
		}
		log.Printf("assign depots: depot=%d kind=%s tasks=%d", d.ID, kind, counts[d.ID])
	}
}
