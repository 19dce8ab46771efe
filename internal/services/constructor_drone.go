package services

import (
	"math"
	"sort"

	"fleet-route-planner/internal/domain"
)

// Mutable state of a drone sortie. The payload interval [lo, hi] tracks the
// set of initial loads the drone could have left the reset point with and
// still satisfy every stop served so far; the sortie is infeasible once
// lo > hi. relLoad is the net weight picked up since the reset point.
type sortieState struct {
	battery float64
	lo      float64
	hi      float64
	relLoad float64
}

func newSortie(v domain.Vehicle) sortieState {
	return sortieState{battery: v.MaxBattery, lo: 0, hi: v.MaxLoad}
}

// window returns the payload interval after serving the task, without
// mutating the sortie.
func (s sortieState) window(v domain.Vehicle, task domain.TaskPoint) (lo, hi float64) {
	lo = math.Max(s.lo, task.DeliveryWeight-s.relLoad)
	hi = math.Min(s.hi, v.MaxLoad-s.relLoad-task.PickupWeight+task.DeliveryWeight)
	return lo, hi
}

func (s *sortieState) serve(v domain.Vehicle, task domain.TaskPoint, flight float64) {
	s.lo, s.hi = s.window(v, task)
	s.relLoad += task.PickupWeight - task.DeliveryWeight
	s.battery -= flight
}

func (s *sortieState) reset(v domain.Vehicle) {
	*s = newSortie(v)
}

// A candidate sortie-ending point: the home depot or a rendezvous with a
// truck. completion already includes any wait for the truck.
type returnOption struct {
	stop       domain.Stop
	completion float64
}

// droneRoute plans a drone route over its task list. truckVisits maps task
// ids to the earliest arrival of a truck there; a non-nil map enables
// rendezvous returns. gating enables release-time handling for extra tasks.
func (c *RouteConstructor) droneRoute(v domain.Vehicle, taskIDs []int, truckVisits map[int]float64, gating bool) domain.Route {
	if len(taskIDs) == 0 {
		return degenerateRoute(v)
	}

	stops := []domain.Stop{domain.DepotStop(v.DepotID)}
	arrivals := []float64{0}
	visited := make([]bool, len(taskIDs))
	remaining := len(taskIDs)
	cur := v.DepotID
	clock := 0.0
	state := newSortie(v)
	maxIter := iterationCapFactor * len(taskIDs)

	// admit reports whether the drone can commit to task i right now,
	// ignoring release gating. It returns the flight time to the task.
	admit := func(i int) (flight float64, ok bool) {
		id := taskIDs[i]
		task, found := c.Problem.TaskByID(id)
		if !found {
			return 0, false
		}
		d := c.Oracle.Distance(cur, id, true)
		if math.IsInf(d, 1) {
			return 0, false
		}
		flight = d / v.Speed
		left := state.battery - flight
		if left < batteryReserveFraction*v.MaxBattery {
			return 0, false
		}
		if !c.returnFeasible(v, id, left, clock+flight, truckVisits) {
			return 0, false
		}
		if lo, hi := state.window(v, task); lo > hi {
			return 0, false
		}
		return flight, true
	}

	visit := func(i int, arrival float64, flight float64) {
		id := taskIDs[i]
		task, _ := c.Problem.TaskByID(id)
		state.serve(v, task, flight)
		visited[i] = true
		remaining--
		cur = id
		clock = arrival
		stops = append(stops, domain.TaskStop(id))
		arrivals = append(arrivals, arrival)
	}

	for iter := 0; remaining > 0; iter++ {
		if iter >= maxIter {
			return failedRoute(v)
		}

		best := -1
		bestDist := math.Inf(1)
		bestFlight := 0.0
		for i, id := range taskIDs {
			if visited[i] {
				continue
			}
			flight, ok := admit(i)
			if !ok {
				continue
			}
			if gating {
				task, _ := c.Problem.TaskByID(id)
				if task.IsExtra() && clock+flight < task.ReleaseTime {
					continue
				}
			}
			d := c.Oracle.Distance(cur, id, true)
			if d < bestDist {
				bestDist = d
				best = i
				bestFlight = flight
			}
		}

		if best >= 0 {
			visit(best, clock+bestFlight, bestFlight)
			continue
		}

		// Wait in place for the earliest unreleased extra the drone could
		// otherwise serve. Hovering costs no battery.
		if gating {
			if i, ok := c.earliestExtra(taskIDs, visited, func(i int) bool {
				_, ok := admit(i)
				return ok
			}); ok {
				id := taskIDs[i]
				task, _ := c.Problem.TaskByID(id)
				flight, _ := admit(i)
				arrival := clock + flight
				if arrival < task.ReleaseTime {
					arrival = task.ReleaseTime
				}
				visit(i, arrival, flight)
				continue
			}
		}

		// No candidate fits this sortie; end it at the best reset point and
		// retry with a full battery and empty hold.
		ret, ok := c.bestReturn(v, cur, state.battery, clock, truckVisits)
		if !ok {
			return failedRoute(v)
		}
		cur = ret.stop.ID
		clock = ret.completion
		state.reset(v)
		stops = append(stops, ret.stop)
		arrivals = append(arrivals, ret.completion)
	}

	// Close the route at the home depot, resetting at a rendezvous on the
	// way when that finishes the sortie earlier.
	if cur != v.DepotID {
		ret, ok := c.bestReturn(v, cur, state.battery, clock, truckVisits)
		if !ok {
			return failedRoute(v)
		}
		clock = ret.completion
		stops = append(stops, ret.stop)
		arrivals = append(arrivals, ret.completion)
		if ret.stop.Kind == domain.StopRendezvous {
			state.reset(v)
			home := c.Oracle.Distance(ret.stop.ID, v.DepotID, true) / v.Speed
			if home > state.battery {
				return failedRoute(v)
			}
			clock += home
			stops = append(stops, domain.DepotStop(v.DepotID))
			arrivals = append(arrivals, clock)
		}
	}

	return domain.Route{VehicleID: v.ID, Stops: stops, Arrivals: arrivals}
}

// returnFeasible reports whether some sortie-ending point is reachable from
// the given position with the battery left: the home depot, or a truck-visited
// task the drone reaches strictly before the truck.
func (c *RouteConstructor) returnFeasible(v domain.Vehicle, from int, battery, timeAt float64, truckVisits map[int]float64) bool {
	if c.Oracle.Distance(from, v.DepotID, true)/v.Speed <= battery {
		return true
	}
	for taskID, truckAt := range truckVisits {
		if taskID == from {
			continue
		}
		flight := c.Oracle.Distance(from, taskID, true) / v.Speed
		if flight <= battery && timeAt+flight < truckAt {
			return true
		}
	}
	return false
}

// bestReturn picks the sortie-ending point with the earliest completion time:
// the home depot (completion = arrival) or a rendezvous (completion = truck
// arrival, since the drone must land strictly first and then wait).
func (c *RouteConstructor) bestReturn(v domain.Vehicle, from int, battery, clock float64, truckVisits map[int]float64) (returnOption, bool) {
	best := returnOption{completion: math.Inf(1)}
	found := false

	homeFlight := c.Oracle.Distance(from, v.DepotID, true) / v.Speed
	if homeFlight <= battery {
		best = returnOption{stop: domain.DepotStop(v.DepotID), completion: clock + homeFlight}
		found = true
	}

	ids := make([]int, 0, len(truckVisits))
	for id := range truckVisits {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, taskID := range ids {
		truckAt := truckVisits[taskID]
		flight := c.Oracle.Distance(from, taskID, true) / v.Speed
		arrival := clock + flight
		if flight > battery || arrival >= truckAt {
			continue
		}
		completion := math.Max(arrival, truckAt)
		if completion < best.completion {
			best = returnOption{stop: domain.RendezvousStop(taskID), completion: completion}
			found = true
		}
	}

	return best, found
}
