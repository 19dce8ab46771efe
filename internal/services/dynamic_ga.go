package services

import (
	"math"
	"math/rand"
	"sort"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/ports"
)

// Multiplier applied to the time the latest initial task slips past the
// congestion-free static makespan.
const delayPenaltyFactor = 2.0

// IdentifyDelayedTasks replays every static route under peak congestion and
// returns the ids of initial tasks whose arrival slips past staticMakespan
// even though the congestion-free plan met it.
func IdentifyDelayedTasks(problem *domain.Problem, oracle ports.TravelOracle, staticRoutes map[int]domain.Route, staticMakespan float64) []int {
	var delayed []int
	seen := make(map[int]struct{})

	vehicleIDs := sortedKeys(staticRoutes)
	for _, vehicleID := range vehicleIDs {
		route := staticRoutes[vehicleID]
		v, ok := problem.VehicleByID(vehicleID)
		if !ok || route.Empty() || v.IsDrone() {
			// Drones ignore traffic; their replay matches the plan.
			continue
		}
		if len(route.Stops) != len(route.Arrivals) {
			continue
		}
		clock := 0.0
		for i := 0; i+1 < len(route.Stops); i++ {
			clock += oracle.TravelTime(route.Stops[i].Marker(), route.Stops[i+1].Marker(), clock, v, true)
			stop := route.Stops[i+1]
			if stop.Kind != domain.StopTask {
				continue
			}
			if clock > staticMakespan && route.Arrivals[i+1] <= staticMakespan {
				if _, dup := seen[stop.ID]; !dup {
					seen[stop.ID] = struct{}{}
					delayed = append(delayed, stop.ID)
				}
			}
		}
	}

	sort.Ints(delayed)
	return delayed
}

func sortedKeys(m map[int]domain.Route) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Dynamic-phase optimizer. One global genetic algorithm over every task:
// delayed and extra tasks may move to any vehicle in the fleet, while the
// rest stay pinned to vehicles of their original depot. Fitness scores the
// full cooperative route set under peak congestion.
type DynamicGA struct {
	problem *domain.Problem
	oracle  ports.TravelOracle
	coop    *CooperativePlanner
	params  GAParams
	rng     *rand.Rand

	staticMakespan float64

	taskIDs      []int       // genome slots, initial tasks then extras
	flexible     map[int]bool
	staticOwner  map[int]int // task id -> static vehicle id
	pinnedDepot  map[int]int // non-flexible task id -> original depot id
	depotFleet   map[int][]domain.Vehicle
	truckIDs     []int
	allVehicleID []int
}

func NewDynamicGA(
	problem *domain.Problem,
	oracle ports.TravelOracle,
	staticRoutes map[int]domain.Route,
	staticMakespan float64,
	delayed []int,
	params GAParams,
	seed int64,
) *DynamicGA {
	ga := &DynamicGA{
		problem:        problem,
		oracle:         oracle,
		coop:           NewCooperativePlanner(problem, oracle),
		params:         params,
		rng:            newRNG(seed),
		staticMakespan: staticMakespan,
		flexible:       make(map[int]bool),
		staticOwner:    make(map[int]int),
		pinnedDepot:    make(map[int]int),
		depotFleet:     make(map[int][]domain.Vehicle),
	}

	for _, vehicleID := range sortedKeys(staticRoutes) {
		route := staticRoutes[vehicleID]
		for _, s := range route.Stops {
			if s.Kind == domain.StopTask {
				ga.staticOwner[s.ID] = vehicleID
			}
		}
	}

	// Genome slots: initial tasks that made it into the static plan, in
	// input order, then every extra task.
	for _, t := range problem.InitialTasks() {
		if _, ok := ga.staticOwner[t.ID]; ok {
			ga.taskIDs = append(ga.taskIDs, t.ID)
		}
	}
	for _, t := range problem.ExtraTasks() {
		ga.taskIDs = append(ga.taskIDs, t.ID)
		ga.flexible[t.ID] = true
	}
	for _, id := range delayed {
		ga.flexible[id] = true
	}

	for _, taskID := range ga.taskIDs {
		if ga.flexible[taskID] {
			continue
		}
		owner, ok := problem.VehicleByID(ga.staticOwner[taskID])
		if ok {
			ga.pinnedDepot[taskID] = owner.DepotID
		}
	}

	for _, d := range problem.Depots {
		ga.depotFleet[d.ID] = problem.DepotVehicles(d.ID)
	}
	for _, v := range problem.Vehicles {
		ga.allVehicleID = append(ga.allVehicleID, v.ID)
		if !v.IsDrone() {
			ga.truckIDs = append(ga.truckIDs, v.ID)
		}
	}

	return ga
}

// Run evolves the global assignment. ok=false means no feasible initial
// population was found; callers fall back to the static solution.
func (ga *DynamicGA) Run() (Assignment, bool) {
	if len(ga.taskIDs) == 0 {
		return Assignment{}, true
	}

	pop := ga.seedPopulation()
	if len(pop) == 0 {
		return nil, false
	}

	for gen := 0; gen < ga.params.Generations; gen++ {
		scores := evaluateAll(pop, ga.fitness)
		order := rankPopulation(pop, scores)

		eliteCount := ga.params.PopulationSize / 2
		if eliteCount > len(order) {
			eliteCount = len(order)
		}
		next := make([]genome, 0, ga.params.PopulationSize)
		for _, idx := range order[:eliteCount] {
			next = append(next, pop[idx])
		}

		maxAttempts := ga.params.PopulationSize * crossoverAttemptFactor
		for attempt := 0; len(next) < ga.params.PopulationSize && attempt < maxAttempts; attempt++ {
			p1 := pop[order[ga.rng.Intn(eliteCount)]]
			p2 := pop[order[ga.rng.Intn(eliteCount)]]
			c1, c2 := p1.clone(), p2.clone()
			point := ga.rng.Intn(len(ga.taskIDs))
			for j := 0; j <= point; j++ {
				c1[j], c2[j] = c2[j], c1[j]
			}
			ga.repair(c1)
			ga.repair(c2)
			if feasible(ga.fitness(c1)) {
				next = append(next, c1)
			}
			if len(next) < ga.params.PopulationSize && feasible(ga.fitness(c2)) {
				next = append(next, c2)
			}
		}
		for i := 0; len(next) < ga.params.PopulationSize; i++ {
			next = append(next, pop[order[i%eliteCount]].clone())
		}

		for _, g := range next {
			if ga.rng.Float64() >= ga.params.MutationRate {
				continue
			}
			ga.mutate(g)
		}

		pop = next
	}

	scores := evaluateAll(pop, ga.fitness)
	order := rankPopulation(pop, scores)
	best := pop[order[0]]

	out := make(Assignment, len(ga.taskIDs))
	for i, taskID := range ga.taskIDs {
		out[taskID] = best[i]
	}
	return out, true
}

// seedPopulation generates random feasible individuals. Half of the seeds
// restrict flexible tasks to trucks, which keeps the pool viable when an
// all-drone spread of the new demand cannot fly.
func (ga *DynamicGA) seedPopulation() []genome {
	pop := make([]genome, 0, ga.params.PopulationSize)
	maxAttempts := ga.params.PopulationSize * 10

	for attempt := 0; len(pop) < ga.params.PopulationSize && attempt < maxAttempts; attempt++ {
		trucksOnly := len(pop)%2 == 0 && len(ga.truckIDs) > 0
		g := make(genome, len(ga.taskIDs))
		for i, taskID := range ga.taskIDs {
			switch {
			case !ga.flexible[taskID]:
				g[i] = ga.staticOwner[taskID]
			case trucksOnly:
				g[i] = ga.truckIDs[ga.rng.Intn(len(ga.truckIDs))]
			default:
				g[i] = ga.allVehicleID[ga.rng.Intn(len(ga.allVehicleID))]
			}
		}
		if feasible(ga.fitness(g)) {
			pop = append(pop, g)
		}
	}

	return pop
}

// repair forces every pinned gene back onto a vehicle of the task's original
// depot after crossover has mixed parents.
func (ga *DynamicGA) repair(g genome) {
	for i, taskID := range ga.taskIDs {
		depotID, pinned := ga.pinnedDepot[taskID]
		if !pinned {
			continue
		}
		v, ok := ga.problem.VehicleByID(g[i])
		if ok && v.DepotID == depotID {
			continue
		}
		fleet := ga.depotFleet[depotID]
		if len(fleet) > 0 {
			g[i] = fleet[ga.rng.Intn(len(fleet))].ID
		}
	}
}

func (ga *DynamicGA) mutate(g genome) {
	slot := ga.rng.Intn(len(ga.taskIDs))
	taskID := ga.taskIDs[slot]
	old := g[slot]

	for retry := 0; retry < mutationRetryCap; retry++ {
		var candidate int
		if ga.flexible[taskID] {
			candidate = ga.allVehicleID[ga.rng.Intn(len(ga.allVehicleID))]
		} else {
			fleet := ga.depotFleet[ga.pinnedDepot[taskID]]
			if len(fleet) == 0 {
				return
			}
			candidate = fleet[ga.rng.Intn(len(fleet))].ID
		}
		if candidate == old {
			continue
		}
		g[slot] = candidate
		if feasible(ga.fitness(g)) {
			return
		}
		g[slot] = old
	}
}

// fitness routes the whole fleet cooperatively and scores peak-aware
// makespan plus a penalty for initial tasks slipping past the static
// makespan, blended with operating cost by the instance time weight.
func (ga *DynamicGA) fitness(g genome) float64 {
	assignment := make(map[int]int, len(ga.taskIDs))
	for i, taskID := range ga.taskIDs {
		assignment[taskID] = g[i]
	}

	routes, ok := ga.coop.PlanRoutes(assignment)
	if !ok {
		return math.Inf(1)
	}

	makespan := 0.0
	maxInitial := 0.0
	cost := 0.0
	for _, r := range routes {
		for i, s := range r.Stops {
			if s.Kind != domain.StopTask {
				continue
			}
			if r.Arrivals[i] > makespan {
				makespan = r.Arrivals[i]
			}
			if task, ok := ga.problem.TaskByID(s.ID); ok && !task.IsExtra() && r.Arrivals[i] > maxInitial {
				maxInitial = r.Arrivals[i]
			}
		}
		v, ok := ga.problem.VehicleByID(r.VehicleID)
		if !ok {
			return math.Inf(1)
		}
		cost += v.UnitCost * float64(r.TaskCount())
	}

	penalty := 0.0
	if maxInitial > ga.staticMakespan {
		penalty = delayPenaltyFactor * (maxInitial - ga.staticMakespan)
	}

	w := ga.problem.TimeWeight
	return w*(makespan+penalty) + (1-w)*cost
}
