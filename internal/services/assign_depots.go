package services

import (
	"math"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/ports"
)

// AssignDepots assigns every initial task to the depot minimizing travel time
// with the depot's vehicle kind. A depot whose fleet is drone-only is
// eligible only when a round trip at drone speed fits within the battery.
// Ties go to the smaller depot id. Returns the ids of tasks no depot can
// serve; those tasks stay unassigned for the validator to report.
func AssignDepots(problem *domain.Problem, oracle ports.TravelOracle) []int {
	var unassigned []int

	for _, task := range problem.InitialTasks() {
		bestDepot := -1
		bestTime := math.Inf(1)

		// Depots are kept sorted by id, so a strict improvement check
		// breaks ties toward the smaller id.
		for _, depot := range problem.Depots {
			t, ok := depotReachTime(problem, oracle, task.ID, depot)
			if !ok {
				continue
			}
			if t < bestTime {
				bestTime = t
				bestDepot = depot.ID
			}
		}

		if bestDepot < 0 {
			unassigned = append(unassigned, task.ID)
			continue
		}
		problem.AssignTaskDepot(task.ID, bestDepot)
	}

	return unassigned
}

// depotReachTime returns the best one-way travel time from the depot to the
// task over the depot's vehicle kinds, honoring drone battery round trips.
func depotReachTime(problem *domain.Problem, oracle ports.TravelOracle, taskID int, depot domain.Depot) (float64, bool) {
	best := math.Inf(1)
	found := false

	for _, v := range problem.DepotVehicles(depot.ID) {
		d := oracle.Distance(taskID, depot.ID, v.IsDrone())
		if math.IsInf(d, 1) || v.Speed <= 0 {
			continue
		}
		t := d / v.Speed
		if v.IsDrone() && 2*t > v.MaxBattery {
			continue
		}
		if t < best {
			best = t
			found = true
		}
	}

	return best, found
}
