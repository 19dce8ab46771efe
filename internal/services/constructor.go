package services

import (
	"math"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/ports"
)

const (
	// Fraction of battery a drone must keep in reserve when it commits to a
	// task; the remainder covers the return leg it has already verified.
	batteryReserveFraction = 0.10

	// Outer-loop iterations allowed per task before construction gives up.
	iterationCapFactor = 3
)

// Builds feasible per-vehicle routes over an assigned task list using greedy
// nearest-neighbor selection with a multi-constraint feasibility filter.
//
// The algorithm minimizes immediate travel distance at each step. It does not
// attempt global route optimization; the genetic layer above explores the
// assignment space instead. An empty Route marks a failed construction.
type RouteConstructor struct {
	Problem *domain.Problem
	Oracle  ports.TravelOracle
}

// BuildStatic plans a route for the initial phase: no traffic, no release
// gating, drones return only to their home depot.
func (c *RouteConstructor) BuildStatic(v domain.Vehicle, taskIDs []int) domain.Route {
	if v.IsDrone() {
		return c.droneRoute(v, taskIDs, nil, false)
	}
	return c.truckRoute(v, taskIDs, false, false)
}

// BuildDynamic plans a route for the re-planning phase: trucks honor peak
// congestion, extra tasks are gated on their release times, and drones may
// end a sortie at a rendezvous point listed in truckVisits (task id ->
// earliest truck arrival).
func (c *RouteConstructor) BuildDynamic(v domain.Vehicle, taskIDs []int, truckVisits map[int]float64) domain.Route {
	if v.IsDrone() {
		return c.droneRoute(v, taskIDs, truckVisits, true)
	}
	return c.truckRoute(v, taskIDs, true, true)
}

// degenerateRoute is the route of a vehicle with nothing to do.
func degenerateRoute(v domain.Vehicle) domain.Route {
	return domain.Route{
		VehicleID: v.ID,
		Stops:     []domain.Stop{domain.DepotStop(v.DepotID), domain.DepotStop(v.DepotID)},
		Arrivals:  []float64{0, 0},
	}
}

func failedRoute(v domain.Vehicle) domain.Route {
	return domain.Route{VehicleID: v.ID}
}

func (c *RouteConstructor) truckRoute(v domain.Vehicle, taskIDs []int, traffic, gating bool) domain.Route {
	if len(taskIDs) == 0 {
		return degenerateRoute(v)
	}

	stops := []domain.Stop{domain.DepotStop(v.DepotID)}
	arrivals := []float64{0}
	visited := make([]bool, len(taskIDs))
	remaining := len(taskIDs)
	cur := v.DepotID
	clock := 0.0
	maxIter := iterationCapFactor * len(taskIDs)

	for iter := 0; remaining > 0; iter++ {
		if iter >= maxIter {
			return failedRoute(v)
		}

		best := -1
		bestDist := math.Inf(1)
		for i, id := range taskIDs {
			if visited[i] {
				continue
			}
			d := c.Oracle.Distance(cur, id, false)
			if math.IsInf(d, 1) {
				continue
			}
			if gating {
				task, ok := c.Problem.TaskByID(id)
				if ok && task.IsExtra() {
					tt := c.Oracle.TravelTime(cur, id, clock, v, traffic)
					if clock+tt < task.ReleaseTime {
						continue
					}
				}
			}
			if d < bestDist {
				bestDist = d
				best = i
			}
		}

		if best >= 0 {
			id := taskIDs[best]
			clock += c.Oracle.TravelTime(cur, id, clock, v, traffic)
			visited[best] = true
			remaining--
			cur = id
			stops = append(stops, domain.TaskStop(id))
			arrivals = append(arrivals, clock)
			continue
		}

		// Nothing is eligible yet. If unreleased extras remain, wait in
		// place for the earliest one and depart so that arrival meets its
		// release time.
		if gating {
			reachable := func(i int) bool {
				return !math.IsInf(c.Oracle.Distance(cur, taskIDs[i], false), 1)
			}
			if i, ok := c.earliestExtra(taskIDs, visited, reachable); ok {
				id := taskIDs[i]
				task, _ := c.Problem.TaskByID(id)
				tt := c.Oracle.TravelTime(cur, id, clock, v, traffic)
				if !math.IsInf(tt, 1) {
					arrival := clock + tt
					if arrival < task.ReleaseTime {
						arrival = task.ReleaseTime
					}
					clock = arrival
					visited[i] = true
					remaining--
					cur = id
					stops = append(stops, domain.TaskStop(id))
					arrivals = append(arrivals, clock)
					continue
				}
			}
		}

		// Remaining tasks are unreachable on the road network.
		return failedRoute(v)
	}

	back := c.Oracle.TravelTime(cur, v.DepotID, clock, v, traffic)
	if math.IsInf(back, 1) {
		return failedRoute(v)
	}
	clock += back
	stops = append(stops, domain.DepotStop(v.DepotID))
	arrivals = append(arrivals, clock)

	return domain.Route{VehicleID: v.ID, Stops: stops, Arrivals: arrivals}
}

// earliestExtra picks the unvisited extra task with the smallest release time
// among those accepted by the filter. Ties go to the smaller index, which
// follows input order.
func (c *RouteConstructor) earliestExtra(taskIDs []int, visited []bool, accept func(i int) bool) (int, bool) {
	best := -1
	bestRelease := math.Inf(1)
	for i, id := range taskIDs {
		if visited[i] {
			continue
		}
		task, ok := c.Problem.TaskByID(id)
		if !ok || !task.IsExtra() {
			continue
		}
		if !accept(i) {
			continue
		}
		if task.ReleaseTime < bestRelease {
			bestRelease = task.ReleaseTime
			best = i
		}
	}
	return best, best >= 0
}
