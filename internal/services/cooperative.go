package services

import (
	"sort"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/ports"
)

// Plans the dynamic phase in two passes: trucks first with peak-aware times,
// then drones, which may end sorties at points the trucks are scheduled to
// visit and wait there to recharge and reload.
type CooperativePlanner struct {
	Problem     *domain.Problem
	Oracle      ports.TravelOracle
	Constructor *RouteConstructor
}

func NewCooperativePlanner(problem *domain.Problem, oracle ports.TravelOracle) *CooperativePlanner {
	return &CooperativePlanner{
		Problem:     problem,
		Oracle:      oracle,
		Constructor: &RouteConstructor{Problem: problem, Oracle: oracle},
	}
}

// PlanRoutes builds the full dynamic route set for a task -> vehicle
// assignment. Returns ok=false when any vehicle with work ends up without a
// feasible route; callers score such assignments as infeasible.
func (p *CooperativePlanner) PlanRoutes(assignment map[int]int) (map[int]domain.Route, bool) {
	byVehicle := make(map[int][]int)
	for taskID, vehicleID := range assignment {
		byVehicle[vehicleID] = append(byVehicle[vehicleID], taskID)
	}
	for _, ids := range byVehicle {
		sort.Ints(ids)
	}

	routes := make(map[int]domain.Route, len(p.Problem.Vehicles))

	// Pass 1: trucks. Record the earliest truck arrival per task so drones
	// can rendezvous there.
	truckVisits := make(map[int]float64)
	for _, v := range p.Problem.Vehicles {
		if v.IsDrone() {
			continue
		}
		tasks := byVehicle[v.ID]
		r := p.Constructor.BuildDynamic(v, tasks, nil)
		if r.Empty() {
			return nil, false
		}
		routes[v.ID] = r
		for i, s := range r.Stops {
			if s.Kind != domain.StopTask {
				continue
			}
			if at, ok := truckVisits[s.ID]; !ok || r.Arrivals[i] < at {
				truckVisits[s.ID] = r.Arrivals[i]
			}
		}
	}

	// Pass 2: drones, with the rendezvous table fixed.
	for _, v := range p.Problem.Vehicles {
		if !v.IsDrone() {
			continue
		}
		tasks := byVehicle[v.ID]
		r := p.Constructor.BuildDynamic(v, tasks, truckVisits)
		if r.Empty() {
			return nil, false
		}
		routes[v.ID] = r
	}

	return routes, true
}
