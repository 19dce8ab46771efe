package services

import (
	"log"
	"math"
	"math/rand"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/ports"
)

// Task id -> vehicle id mapping produced by an optimizer.
type Assignment map[int]int

// Static-phase optimizer. Runs an independent genetic algorithm per depot:
// the chromosome picks, for each of the depot's tasks, which of the depot's
// vehicles serves it, and fitness routes every implied vehicle with the
// static constructor.
type StaticGA struct {
	problem     *domain.Problem
	oracle      ports.TravelOracle
	constructor *RouteConstructor
	params      GAParams
	rng         *rand.Rand
}

func NewStaticGA(problem *domain.Problem, oracle ports.TravelOracle, params GAParams, seed int64) *StaticGA {
	return &StaticGA{
		problem:     problem,
		oracle:      oracle,
		constructor: &RouteConstructor{Problem: problem, Oracle: oracle},
		params:      params,
		rng:         newRNG(seed),
	}
}

// Run optimizes every depot and returns the concatenated task -> vehicle
// assignment of the best individuals. Depots whose population cannot be
// seeded are skipped with a warning; their tasks stay unassigned.
func (ga *StaticGA) Run() Assignment {
	out := make(Assignment)

	for _, depot := range ga.problem.Depots {
		taskIDs := ga.depotTasks(depot.ID)
		if len(taskIDs) == 0 {
			continue
		}
		vehicles := ga.problem.DepotVehicles(depot.ID)
		if len(vehicles) == 0 {
			log.Printf("static ga: depot=%d has tasks but no vehicles, skipping", depot.ID)
			continue
		}

		best, ok := ga.evolveDepot(taskIDs, vehicles)
		if !ok {
			log.Printf("static ga: depot=%d could not seed a feasible population, skipping", depot.ID)
			continue
		}
		for i, taskID := range taskIDs {
			out[taskID] = best[i]
		}
	}

	return out
}

// depotTasks returns the initial tasks assigned to a depot, in input order.
func (ga *StaticGA) depotTasks(depotID int) []int {
	var ids []int
	for _, t := range ga.problem.InitialTasks() {
		if t.DepotID == depotID {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func (ga *StaticGA) evolveDepot(taskIDs []int, vehicles []domain.Vehicle) (genome, bool) {
	fitness := func(g genome) float64 { return ga.fitness(taskIDs, g) }

	randomVehicle := func() int {
		return vehicles[ga.rng.Intn(len(vehicles))].ID
	}

	// Seed with random feasible assignments.
	pop := make([]genome, 0, ga.params.PopulationSize)
	for attempt := 0; len(pop) < ga.params.PopulationSize && attempt < seedAttemptCap; attempt++ {
		g := make(genome, len(taskIDs))
		for i := range g {
			g[i] = randomVehicle()
		}
		if feasible(fitness(g)) {
			pop = append(pop, g)
		}
	}
	if len(pop) == 0 {
		return nil, false
	}

	for gen := 0; gen < ga.params.Generations; gen++ {
		scores := evaluateAll(pop, fitness)
		order := rankPopulation(pop, scores)

		// Elitist selection: the best half survives unchanged.
		eliteCount := ga.params.PopulationSize / 2
		if eliteCount > len(order) {
			eliteCount = len(order)
		}
		next := make([]genome, 0, ga.params.PopulationSize)
		for _, idx := range order[:eliteCount] {
			next = append(next, pop[idx])
		}

		// Single-point crossover over elite parents; children join only
		// when they stay feasible.
		maxAttempts := ga.params.PopulationSize * crossoverAttemptFactor
		for attempt := 0; len(next) < ga.params.PopulationSize && attempt < maxAttempts; attempt++ {
			p1 := pop[order[ga.rng.Intn(eliteCount)]]
			p2 := pop[order[ga.rng.Intn(eliteCount)]]
			c1, c2 := p1.clone(), p2.clone()
			point := ga.rng.Intn(len(taskIDs))
			for j := 0; j <= point; j++ {
				c1[j], c2[j] = c2[j], c1[j]
			}
			if feasible(fitness(c1)) {
				next = append(next, c1)
			}
			if len(next) < ga.params.PopulationSize && feasible(fitness(c2)) {
				next = append(next, c2)
			}
		}
		// Top up from the elites when crossover kept failing.
		for i := 0; len(next) < ga.params.PopulationSize; i++ {
			next = append(next, pop[order[i%eliteCount]].clone())
		}

		// Mutation with bounded feasibility retries.
		for _, g := range next {
			if ga.rng.Float64() >= ga.params.MutationRate {
				continue
			}
			slot := ga.rng.Intn(len(taskIDs))
			old := g[slot]
			for retry := 0; retry < mutationRetryCap; retry++ {
				candidate := randomVehicle()
				if candidate == old {
					continue
				}
				g[slot] = candidate
				if feasible(fitness(g)) {
					break
				}
				g[slot] = old
			}
		}

		pop = next
	}

	scores := evaluateAll(pop, fitness)
	order := rankPopulation(pop, scores)
	return pop[order[0]], true
}

// fitness scores one depot chromosome: weighted sum of the latest final-task
// arrival across the depot's vehicles and the fleet operating cost. Any
// failed construction makes the individual infeasible.
func (ga *StaticGA) fitness(taskIDs []int, g genome) float64 {
	byVehicle := make(map[int][]int)
	for i, taskID := range taskIDs {
		byVehicle[g[i]] = append(byVehicle[g[i]], taskID)
	}

	makespan := 0.0
	cost := 0.0
	for vehicleID, ids := range byVehicle {
		v, ok := ga.problem.VehicleByID(vehicleID)
		if !ok {
			return math.Inf(1)
		}
		r := ga.constructor.BuildStatic(v, ids)
		if r.Empty() || r.TaskCount() != len(ids) {
			return math.Inf(1)
		}
		if m := r.Makespan(); m > makespan {
			makespan = m
		}
		cost += v.UnitCost * float64(r.TaskCount())
	}

	w := ga.problem.TimeWeight
	return w*makespan + (1-w)*cost
}
