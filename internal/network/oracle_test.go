package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-route-planner/internal/domain"
)

func truck(speed float64) domain.Vehicle {
	return domain.Vehicle{ID: 1, Kind: domain.KindTruck, Speed: speed}
}

func drone(speed float64) domain.Vehicle {
	return domain.Vehicle{ID: 2, Kind: domain.KindDrone, Speed: speed, MaxLoad: 10, MaxBattery: 5}
}

func TestOracleDistanceByKind(t *testing.T) {
	net := New()
	net.AddNode(1, domain.Point{X: 0, Y: 0})
	net.AddNode(2, domain.Point{X: 3, Y: 4})
	net.AddEdge(1, 2, 9)
	require.NoError(t, net.ComputeShortestPaths())
	o := NewOracle(net, DefaultPeakWindows())

	assert.Equal(t, 9.0, o.Distance(1, 2, false), "trucks use road distance")
	assert.Equal(t, 5.0, o.Distance(1, 2, true), "drones fly straight lines")
	assert.Equal(t, 0.0, o.Distance(2, 2, true))
}

func TestOracleStripsRendezvousMarkers(t *testing.T) {
	net := New()
	net.AddNode(1, domain.Point{X: 0, Y: 0})
	net.AddNode(2, domain.Point{X: 3, Y: 4})
	require.NoError(t, net.ComputeShortestPaths())
	o := NewOracle(net, DefaultPeakWindows())

	marker := 2 + domain.RendezvousIDOffset
	assert.Equal(t, 5.0, o.Distance(1, marker, true))
	assert.Equal(t, 0.0, o.Distance(marker, 2, true))
}

func TestTravelTimeWithoutTraffic(t *testing.T) {
	net := New()
	net.AddEdge(1, 2, 30)
	require.NoError(t, net.ComputeShortestPaths())
	o := NewOracle(net, DefaultPeakWindows())

	assert.InDelta(t, 0.5, o.TravelTime(1, 2, 8.0, truck(60), false), 1e-12,
		"traffic ignored when not requested, even inside a peak window")
}

func TestTravelTimePeakSplit(t *testing.T) {
	// 60 km at 60 km/h nominal, departing 06:30. The first 30 minutes cover
	// 30 km free-flowing; the morning peak factor 0.5 stretches the
	// remaining 30 km to a full hour.
	net := New()
	net.AddEdge(1, 2, 60)
	net.SetPeakFactors(1, 2, PeakFactors{Morning: 0.5, Evening: 0.5})
	require.NoError(t, net.ComputeShortestPaths())
	o := NewOracle(net, DefaultPeakWindows())

	assert.InDelta(t, 1.5, o.TravelTime(1, 2, 6.5, truck(60), true), 1e-9)
}

func TestTravelTimeWholeSegmentInsidePeak(t *testing.T) {
	net := New()
	net.AddEdge(1, 2, 30)
	net.SetPeakFactors(1, 2, PeakFactors{Morning: 0.5, Evening: 0.3})
	require.NoError(t, net.ComputeShortestPaths())
	o := NewOracle(net, DefaultPeakWindows())

	assert.InDelta(t, 1.0, o.TravelTime(1, 2, 7.0, truck(60), true), 1e-9,
		"30 km at 30 km/h effective inside the morning window")
	assert.InDelta(t, 30.0/18.0, o.TravelTime(1, 2, 17.0, truck(60), true), 1e-9,
		"evening factor applies independently")
}

func TestTravelTimeWrapsAtMidnight(t *testing.T) {
	net := New()
	net.AddEdge(1, 2, 120)
	require.NoError(t, net.ComputeShortestPaths())
	o := NewOracle(net, DefaultPeakWindows())

	// Departing 23:00 the segment crosses midnight; both phases are
	// congestion-free, so the total stays distance/speed.
	assert.InDelta(t, 2.0, o.TravelTime(1, 2, 23.0, truck(60), true), 1e-9)
}

func TestDroneIgnoresTraffic(t *testing.T) {
	net := New()
	net.AddNode(1, domain.Point{X: 0, Y: 0})
	net.AddNode(2, domain.Point{X: 20, Y: 0})
	net.AddEdge(1, 2, 20)
	net.SetPeakFactors(1, 2, PeakFactors{Morning: 0.1, Evening: 0.1})
	require.NoError(t, net.ComputeShortestPaths())
	o := NewOracle(net, DefaultPeakWindows())

	assert.InDelta(t, 0.5, o.TravelTime(1, 2, 8.0, drone(40), true), 1e-12)
}

func TestTravelTimeUnreachable(t *testing.T) {
	net := New()
	net.AddEdge(1, 2, 10)
	require.NoError(t, net.ComputeShortestPaths())
	o := NewOracle(net, DefaultPeakWindows())

	assert.True(t, math.IsInf(o.TravelTime(1, 3, 0, truck(60), true), 1))
}
