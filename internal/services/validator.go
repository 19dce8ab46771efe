package services

import (
	"fmt"
	"math"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/ports"
)

// Arrival-time tolerances for recomputed schedules, in hours.
const (
	msToHours          = 1.0 / 3.6e6
	staticArrivalTol   = 1.0 * msToHours
	dynamicArrivalTol  = 10.0 * msToHours
	batteryEpsilon     = 1e-9
	payloadEpsilon     = 1e-9
	releaseTimeEpsilon = 1e-9
)

// Collected invariant breaches. An empty list means the route set is valid.
type ValidationResult struct {
	Errors []string
}

func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Independently re-derives arrival times, battery and payload trajectories
// from the problem data and checks every route invariant. The validator
// shares no state with the constructors beyond the oracle.
type Validator struct {
	Problem *domain.Problem
	Oracle  ports.TravelOracle
}

// ValidateStatic checks the congestion-free phase: endpoints, exact-once
// coverage of the initial demand, recomputed arrivals within 1 ms, and drone
// battery/payload feasibility. Rendezvous stops are illegal here.
func (val *Validator) ValidateStatic(routes map[int]domain.Route) ValidationResult {
	var res ValidationResult

	for _, vehicleID := range sortedKeys(routes) {
		r := routes[vehicleID]
		if r.Empty() {
			res.errorf("static: vehicle %d has a failed route", vehicleID)
			continue
		}
		v, ok := val.Problem.VehicleByID(vehicleID)
		if !ok {
			res.errorf("static: route for unknown vehicle %d", vehicleID)
			continue
		}
		for _, s := range r.Stops {
			if s.Kind == domain.StopRendezvous {
				res.errorf("static: vehicle %d route contains rendezvous stop task %d", vehicleID, s.ID)
			}
		}
		val.checkEndpoints(&res, "static", v, r)
		val.checkArrivals(&res, "static", v, r, false, nil, staticArrivalTol)
		if v.IsDrone() {
			val.checkDrone(&res, "static", v, r)
		}
	}

	val.checkCoverage(&res, "static", routes, val.Problem.InitialTasks())
	return res
}

// ValidateDynamic checks the re-planned phase: peak-aware arrivals within
// 10 ms, release-time gating, rendezvous consistency against the truck
// schedules, full-demand coverage, and depot retention for tasks the static
// plan completed on time.
func (val *Validator) ValidateDynamic(static, dynamic map[int]domain.Route, staticMakespan float64) ValidationResult {
	var res ValidationResult

	truckVisits := make(map[int]float64)
	for _, vehicleID := range sortedKeys(dynamic) {
		v, ok := val.Problem.VehicleByID(vehicleID)
		if !ok || v.IsDrone() {
			continue
		}
		r := dynamic[vehicleID]
		if len(r.Stops) != len(r.Arrivals) {
			continue
		}
		for i, s := range r.Stops {
			if s.Kind != domain.StopTask {
				continue
			}
			if at, seen := truckVisits[s.ID]; !seen || r.Arrivals[i] < at {
				truckVisits[s.ID] = r.Arrivals[i]
			}
		}
	}

	for _, vehicleID := range sortedKeys(dynamic) {
		r := dynamic[vehicleID]
		if r.Empty() {
			res.errorf("dynamic: vehicle %d has a failed route", vehicleID)
			continue
		}
		v, ok := val.Problem.VehicleByID(vehicleID)
		if !ok {
			res.errorf("dynamic: route for unknown vehicle %d", vehicleID)
			continue
		}
		val.checkEndpoints(&res, "dynamic", v, r)
		val.checkArrivals(&res, "dynamic", v, r, true, truckVisits, dynamicArrivalTol)
		if v.IsDrone() {
			val.checkDrone(&res, "dynamic", v, r)
			val.checkRendezvous(&res, v, r, truckVisits)
		} else {
			for _, s := range r.Stops {
				if s.Kind == domain.StopRendezvous {
					res.errorf("dynamic: truck %d route contains rendezvous stop task %d", vehicleID, s.ID)
				}
			}
		}
		val.checkReleaseTimes(&res, v, r)
	}

	val.checkCoverage(&res, "dynamic", dynamic, val.Problem.Tasks)
	val.checkDepotRetention(&res, static, dynamic, staticMakespan)
	return res
}

func (val *Validator) checkEndpoints(res *ValidationResult, phase string, v domain.Vehicle, r domain.Route) {
	if len(r.Stops) < 2 {
		res.errorf("%s: vehicle %d route has %d stops, want at least 2", phase, v.ID, len(r.Stops))
		return
	}
	if len(r.Stops) != len(r.Arrivals) {
		res.errorf("%s: vehicle %d has %d stops but %d arrival times", phase, v.ID, len(r.Stops), len(r.Arrivals))
		return
	}
	first, last := r.Stops[0], r.Stops[len(r.Stops)-1]
	if first.Kind != domain.StopDepot || first.ID != v.DepotID {
		res.errorf("%s: vehicle %d route does not start at home depot %d", phase, v.ID, v.DepotID)
	}
	if last.Kind != domain.StopDepot || last.ID != v.DepotID {
		res.errorf("%s: vehicle %d route does not end at home depot %d", phase, v.ID, v.DepotID)
	}
	if r.Arrivals[0] != 0 {
		res.errorf("%s: vehicle %d departs at %.6f, want 0", phase, v.ID, r.Arrivals[0])
	}
}

// checkArrivals rebuilds the schedule leg by leg and compares it with the
// reported one. Waiting is legal before an unreleased extra task and at a
// rendezvous, so the recomputed arrival is the later of flight arrival and
// the gating event.
func (val *Validator) checkArrivals(res *ValidationResult, phase string, v domain.Vehicle, r domain.Route, traffic bool, truckVisits map[int]float64, tol float64) {
	if len(r.Stops) != len(r.Arrivals) || len(r.Stops) == 0 {
		return
	}
	clock := 0.0
	for i := 0; i+1 < len(r.Stops); i++ {
		from, to := r.Stops[i], r.Stops[i+1]
		tt := val.Oracle.TravelTime(from.Marker(), to.Marker(), clock, v, traffic)
		if math.IsInf(tt, 1) {
			res.errorf("%s: vehicle %d leg %d->%d is unreachable", phase, v.ID, from.Marker(), to.Marker())
			return
		}
		arrival := clock + tt
		if to.Kind == domain.StopTask {
			if task, ok := val.Problem.TaskByID(to.ID); ok && task.IsExtra() && arrival < task.ReleaseTime {
				arrival = task.ReleaseTime
			}
		}
		if to.Kind == domain.StopRendezvous {
			if truckAt, ok := truckVisits[to.ID]; ok && truckAt > arrival {
				arrival = truckAt
			}
		}
		if diff := math.Abs(arrival - r.Arrivals[i+1]); diff > tol {
			res.errorf("%s: vehicle %d stop %d reported arrival %.6f, recomputed %.6f",
				phase, v.ID, to.Marker(), r.Arrivals[i+1], arrival)
		}
		clock = r.Arrivals[i+1]
	}
}

// checkDrone re-derives the battery and payload trajectory of every sortie.
// Battery drains with flight time only; both reset at depots and rendezvous.
func (val *Validator) checkDrone(res *ValidationResult, phase string, v domain.Vehicle, r domain.Route) {
	battery := v.MaxBattery
	lo, hi, relLoad := 0.0, v.MaxLoad, 0.0

	for i := 1; i < len(r.Stops); i++ {
		flight := val.Oracle.Distance(r.Stops[i-1].Marker(), r.Stops[i].Marker(), true) / v.Speed
		battery -= flight
		if battery < -batteryEpsilon {
			res.errorf("%s: drone %d battery %.6fh below zero at stop %d", phase, v.ID, battery, r.Stops[i].Marker())
		}
		switch r.Stops[i].Kind {
		case domain.StopDepot, domain.StopRendezvous:
			battery = v.MaxBattery
			lo, hi, relLoad = 0, v.MaxLoad, 0
		case domain.StopTask:
			task, ok := val.Problem.TaskByID(r.Stops[i].ID)
			if !ok {
				res.errorf("%s: drone %d visits unknown task %d", phase, v.ID, r.Stops[i].ID)
				continue
			}
			lo = math.Max(lo, task.DeliveryWeight-relLoad)
			hi = math.Min(hi, v.MaxLoad-relLoad-task.PickupWeight+task.DeliveryWeight)
			if lo > hi+payloadEpsilon {
				res.errorf("%s: drone %d payload interval empty at task %d (lo=%.3f hi=%.3f)",
					phase, v.ID, task.ID, lo, hi)
			}
			relLoad += task.PickupWeight - task.DeliveryWeight
		}
	}
}

func (val *Validator) checkRendezvous(res *ValidationResult, v domain.Vehicle, r domain.Route, truckVisits map[int]float64) {
	if len(r.Stops) != len(r.Arrivals) {
		return
	}
	for i, s := range r.Stops {
		if s.Kind != domain.StopRendezvous {
			continue
		}
		truckAt, ok := truckVisits[s.ID]
		if !ok {
			res.errorf("dynamic: drone %d rendezvous at task %d, but no truck visits it", v.ID, s.ID)
			continue
		}
		if r.Arrivals[i] < truckAt-dynamicArrivalTol {
			res.errorf("dynamic: drone %d completes rendezvous at task %d at %.6f before truck arrival %.6f",
				v.ID, s.ID, r.Arrivals[i], truckAt)
		}
	}
}

func (val *Validator) checkReleaseTimes(res *ValidationResult, v domain.Vehicle, r domain.Route) {
	if len(r.Stops) != len(r.Arrivals) {
		return
	}
	for i, s := range r.Stops {
		if s.Kind != domain.StopTask {
			continue
		}
		task, ok := val.Problem.TaskByID(s.ID)
		if !ok || !task.IsExtra() {
			continue
		}
		if r.Arrivals[i] < task.ReleaseTime-releaseTimeEpsilon {
			res.errorf("dynamic: vehicle %d visits extra task %d at %.6f before release %.6f",
				v.ID, task.ID, r.Arrivals[i], task.ReleaseTime)
		}
	}
}

// checkCoverage verifies that every expected task appears exactly once
// across the phase's routes. Rendezvous markers do not count as visits.
func (val *Validator) checkCoverage(res *ValidationResult, phase string, routes map[int]domain.Route, expected []domain.TaskPoint) {
	visits := make(map[int]int)
	for _, r := range routes {
		for _, s := range r.Stops {
			if s.Kind == domain.StopTask {
				visits[s.ID]++
			}
		}
	}
	for _, t := range expected {
		switch visits[t.ID] {
		case 1:
		case 0:
			res.errorf("%s: task %d is not served by any route", phase, t.ID)
		default:
			res.errorf("%s: task %d is served %d times", phase, t.ID, visits[t.ID])
		}
		delete(visits, t.ID)
	}
	for id, n := range visits {
		res.errorf("%s: route visits unexpected task %d (%d times)", phase, id, n)
	}
}

// checkDepotRetention verifies that tasks the static plan completed within
// its makespan stay with their original depot after re-planning.
func (val *Validator) checkDepotRetention(res *ValidationResult, static, dynamic map[int]domain.Route, staticMakespan float64) {
	onTimeDepot := make(map[int]int)
	for _, vehicleID := range sortedKeys(static) {
		v, ok := val.Problem.VehicleByID(vehicleID)
		if !ok {
			continue
		}
		r := static[vehicleID]
		if len(r.Stops) != len(r.Arrivals) {
			continue
		}
		for i, s := range r.Stops {
			if s.Kind == domain.StopTask && r.Arrivals[i] <= staticMakespan+releaseTimeEpsilon {
				onTimeDepot[s.ID] = v.DepotID
			}
		}
	}

	delayed := IdentifyDelayedTasks(val.Problem, val.Oracle, static, staticMakespan)
	for _, id := range delayed {
		delete(onTimeDepot, id)
	}

	for _, vehicleID := range sortedKeys(dynamic) {
		v, ok := val.Problem.VehicleByID(vehicleID)
		if !ok {
			continue
		}
		r := dynamic[vehicleID]
		for _, s := range r.Stops {
			if s.Kind != domain.StopTask {
				continue
			}
			if depotID, pinned := onTimeDepot[s.ID]; pinned && depotID != v.DepotID {
				res.errorf("dynamic: task %d moved from depot %d to depot %d despite finishing on time",
					s.ID, depotID, v.DepotID)
			}
		}
	}
}
