package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-route-planner/internal/domain"
)

func TestTruckRouteOnALine(t *testing.T) {
	// Depot at the origin, two tasks down the road. Nearest-neighbor serves
	// the closer one first and returns home.
	f := newFixture(
		[]domain.TaskPoint{
			{ID: 1, Pos: domain.Point{X: 10}, DeliveryWeight: 1},
			{ID: 2, Pos: domain.Point{X: 25}, DeliveryWeight: 1},
		},
		[]domain.Depot{{ID: 20001, VehicleIDs: []int{1}}},
		[]domain.Vehicle{{ID: 1, Kind: domain.KindTruck, Speed: 50, UnitCost: 1, DepotID: 20001}},
		[]edgeSpec{{20001, 1, 10}, {1, 2, 15}, {20001, 2, 25}},
	)

	v, _ := f.problem.VehicleByID(1)
	r := f.constructor().BuildStatic(v, []int{1, 2})

	require.False(t, r.Empty())
	assert.Equal(t, []int{20001, 1, 2, 20001}, stopIDs(r))
	require.Len(t, r.Arrivals, 4)
	assert.InDelta(t, 0.0, r.Arrivals[0], 1e-12)
	assert.InDelta(t, 0.2, r.Arrivals[1], 1e-9)
	assert.InDelta(t, 0.5, r.Arrivals[2], 1e-9)
	assert.InDelta(t, 1.0, r.Arrivals[3], 1e-9)
	assert.InDelta(t, 0.5, r.Makespan(), 1e-9)
	assert.Equal(t, 2, r.TaskCount())
}

func TestDronePayloadWindow(t *testing.T) {
	// A 6 kg pickup followed by a 6 kg delivery fits a 10 kg drone: the
	// feasible initial-load interval narrows to [0,4] but never empties.
	f := newFixture(
		[]domain.TaskPoint{
			{ID: 1, Pos: domain.Point{X: 1}, PickupWeight: 6},
			{ID: 2, Pos: domain.Point{X: 2}, DeliveryWeight: 6},
		},
		[]domain.Depot{{ID: 20001, VehicleIDs: []int{1}}},
		[]domain.Vehicle{{ID: 1, Kind: domain.KindDrone, Speed: 10, UnitCost: 2, MaxLoad: 10, MaxBattery: 10, DepotID: 20001}},
		nil,
	)

	v, _ := f.problem.VehicleByID(1)
	r := f.constructor().BuildStatic(v, []int{1, 2})

	require.False(t, r.Empty())
	assert.Equal(t, []int{20001, 1, 2, 20001}, stopIDs(r))
	assert.InDelta(t, 0.1, r.Arrivals[1], 1e-9)
	assert.InDelta(t, 0.2, r.Arrivals[2], 1e-9)
	assert.InDelta(t, 0.4, r.Arrivals[3], 1e-9)
}

func TestDroneOverweightDeliveryInfeasible(t *testing.T) {
	// A single delivery heavier than the hold can never be loaded.
	f := newFixture(
		[]domain.TaskPoint{{ID: 1, Pos: domain.Point{X: 1}, DeliveryWeight: 12}},
		[]domain.Depot{{ID: 20001, VehicleIDs: []int{1}}},
		[]domain.Vehicle{{ID: 1, Kind: domain.KindDrone, Speed: 10, UnitCost: 2, MaxLoad: 10, MaxBattery: 10, DepotID: 20001}},
		nil,
	)

	v, _ := f.problem.VehicleByID(1)
	r := f.constructor().BuildStatic(v, []int{1})
	assert.True(t, r.Empty())
}

func TestDroneBatteryReserveGate(t *testing.T) {
	// Reaching the task would leave 0.05h of a 1h battery, under the 10%
	// reserve, so the task is excluded and the route fails.
	f := newFixture(
		[]domain.TaskPoint{{ID: 1, Pos: domain.Point{X: 9.5}, DeliveryWeight: 1}},
		[]domain.Depot{{ID: 20001, VehicleIDs: []int{1}}},
		[]domain.Vehicle{{ID: 1, Kind: domain.KindDrone, Speed: 10, UnitCost: 2, MaxLoad: 10, MaxBattery: 1, DepotID: 20001}},
		nil,
	)

	v, _ := f.problem.VehicleByID(1)
	r := f.constructor().BuildStatic(v, []int{1})
	assert.True(t, r.Empty())
}

func TestDroneReturnsToDepotToReset(t *testing.T) {
	// Battery covers one round trip at a time; the drone re-enters the depot
	// between tasks and both battery and payload reset there.
	f := newFixture(
		[]domain.TaskPoint{
			{ID: 1, Pos: domain.Point{X: 1}, DeliveryWeight: 1},
			{ID: 2, Pos: domain.Point{X: -1}, DeliveryWeight: 1},
		},
		[]domain.Depot{{ID: 20001, VehicleIDs: []int{1}}},
		[]domain.Vehicle{{ID: 1, Kind: domain.KindDrone, Speed: 10, UnitCost: 2, MaxLoad: 10, MaxBattery: 0.25, DepotID: 20001}},
		nil,
	)

	v, _ := f.problem.VehicleByID(1)
	r := f.constructor().BuildStatic(v, []int{1, 2})

	require.False(t, r.Empty())
	assert.Equal(t, []int{20001, 1, 20001, 2, 20001}, stopIDs(r))
	assert.InDelta(t, 0.4, r.CompletionTime(), 1e-9)
}

func TestEmptyTaskListYieldsDegenerateRoute(t *testing.T) {
	f := newFixture(
		nil,
		[]domain.Depot{{ID: 20001, VehicleIDs: []int{1}}},
		[]domain.Vehicle{{ID: 1, Kind: domain.KindTruck, Speed: 50, UnitCost: 1, DepotID: 20001}},
		nil,
	)

	v, _ := f.problem.VehicleByID(1)
	r := f.constructor().BuildStatic(v, nil)

	assert.Equal(t, []int{20001, 20001}, stopIDs(r))
	assert.Equal(t, []float64{0, 0}, r.Arrivals)
	assert.Equal(t, 0, r.TaskCount())
}

func TestTruckUnreachableTaskFails(t *testing.T) {
	f := newFixture(
		[]domain.TaskPoint{{ID: 1, Pos: domain.Point{X: 10}, DeliveryWeight: 1}},
		[]domain.Depot{{ID: 20001, VehicleIDs: []int{1}}},
		[]domain.Vehicle{{ID: 1, Kind: domain.KindTruck, Speed: 50, UnitCost: 1, DepotID: 20001}},
		nil, // no roads at all
	)

	v, _ := f.problem.VehicleByID(1)
	r := f.constructor().BuildStatic(v, []int{1})
	assert.True(t, r.Empty())
}
