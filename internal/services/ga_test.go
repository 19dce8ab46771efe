package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-route-planner/internal/domain"
)

func gaFixture() *fixture {
	return newFixture(
		[]domain.TaskPoint{
			{ID: 1, Pos: domain.Point{X: 10}, DeliveryWeight: 1},
			{ID: 2, Pos: domain.Point{X: 20}, DeliveryWeight: 1},
			{ID: 3, Pos: domain.Point{X: 30}, DeliveryWeight: 1},
			{ID: 4, Pos: domain.Point{X: 40}, DeliveryWeight: 1},
		},
		[]domain.Depot{{ID: 20001, VehicleIDs: []int{1, 2}}},
		[]domain.Vehicle{
			{ID: 1, Kind: domain.KindTruck, Speed: 50, UnitCost: 1, DepotID: 20001},
			{ID: 2, Kind: domain.KindTruck, Speed: 50, UnitCost: 1, DepotID: 20001},
		},
		[]edgeSpec{{20001, 1, 10}, {1, 2, 10}, {2, 3, 10}, {3, 4, 10}},
	)
}

func smallParams() GAParams {
	return GAParams{PopulationSize: 20, Generations: 5, MutationRate: 0.1}
}

func TestStaticGAAssignsEveryDepotTask(t *testing.T) {
	f := gaFixture()
	dropped := AssignDepots(f.problem, f.oracle)
	require.Empty(t, dropped)

	ga := NewStaticGA(f.problem, f.oracle, smallParams(), 7)
	assignment := ga.Run()

	require.Len(t, assignment, 4)
	for taskID, vehicleID := range assignment {
		v, ok := f.problem.VehicleByID(vehicleID)
		require.True(t, ok, "task %d assigned to unknown vehicle %d", taskID, vehicleID)
		assert.Equal(t, 20001, v.DepotID)
	}
}

func TestStaticGADeterministicUnderSeed(t *testing.T) {
	f1 := gaFixture()
	AssignDepots(f1.problem, f1.oracle)
	a1 := NewStaticGA(f1.problem, f1.oracle, smallParams(), 42).Run()

	f2 := gaFixture()
	AssignDepots(f2.problem, f2.oracle)
	a2 := NewStaticGA(f2.problem, f2.oracle, smallParams(), 42).Run()

	assert.Equal(t, a1, a2)
}

func TestStaticSolutionRoutesAreValid(t *testing.T) {
	f := gaFixture()
	solver := NewSolver(f.problem, f.oracle, 7)
	solver.StaticParams = smallParams()

	static := solver.SolveStatic()
	res := (&Validator{Problem: f.problem, Oracle: f.oracle}).ValidateStatic(static.Routes)
	assert.True(t, res.OK(), "static solution failed validation: %v", res.Errors)
	assert.Equal(t, 4, static.TasksServed)
	assert.Greater(t, static.Makespan, 0.0)
}

func TestDynamicDegradesToStaticWhenNothingChanges(t *testing.T) {
	// With no extra demand and neutral peak factors the replay matches the
	// plan exactly, so the dynamic phase returns the static solution.
	f := gaFixture()
	for _, e := range []edgeSpec{{20001, 1, 10}, {1, 2, 10}, {2, 3, 10}, {3, 4, 10}} {
		f.net.SetPeakFactors(e.a, e.b, networkNeutral())
	}

	solver := NewSolver(f.problem, f.oracle, 7)
	solver.StaticParams = smallParams()
	solver.DynamicParams = smallParams()

	static := solver.SolveStatic()
	dynamic := solver.SolveDynamic(static)

	assert.Equal(t, static.Routes, dynamic.Routes)
	assert.Equal(t, static.Makespan, dynamic.Makespan)
	assert.Equal(t, static.TotalCost, dynamic.TotalCost)
}

func TestDynamicReplansExtraDemand(t *testing.T) {
	f := newFixture(
		[]domain.TaskPoint{
			{ID: 1, Pos: domain.Point{X: 10}, DeliveryWeight: 1},
			{ID: 2, Pos: domain.Point{X: 20}, DeliveryWeight: 1},
			{ID: 10001, Pos: domain.Point{X: 30}, ReleaseTime: 0.25, DeliveryWeight: 1},
		},
		[]domain.Depot{{ID: 20001, VehicleIDs: []int{1, 2}}},
		[]domain.Vehicle{
			{ID: 1, Kind: domain.KindTruck, Speed: 50, UnitCost: 1, DepotID: 20001},
			{ID: 2, Kind: domain.KindTruck, Speed: 50, UnitCost: 1, DepotID: 20001},
		},
		[]edgeSpec{{20001, 1, 10}, {1, 2, 10}, {2, 10001, 10}, {20001, 10001, 30}},
	)
	for _, e := range [][2]int{{20001, 1}, {1, 2}, {2, 10001}, {20001, 10001}} {
		f.net.SetPeakFactors(e[0], e[1], networkNeutral())
	}

	solver := NewSolver(f.problem, f.oracle, 7)
	solver.StaticParams = smallParams()
	solver.DynamicParams = smallParams()

	static := solver.SolveStatic()
	dynamic := solver.SolveDynamic(static)

	res := (&Validator{Problem: f.problem, Oracle: f.oracle}).ValidateDynamic(static.Routes, dynamic.Routes, static.Makespan)
	assert.True(t, res.OK(), "dynamic solution failed validation: %v", res.Errors)
	assert.Equal(t, 3, dynamic.TasksServed)
}
