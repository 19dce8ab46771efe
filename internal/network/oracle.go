package network

import (
	"math"

	"fleet-route-planner/internal/domain"
)

// Daily congestion windows in fractional hours. Fixed per run.
type PeakWindows struct {
	MorningStart float64
	MorningEnd   float64
	EveningStart float64
	EveningEnd   float64
}

// DefaultPeakWindows covers the morning [07:00, 09:00) and evening
// [17:00, 19:00) rush hours.
func DefaultPeakWindows() PeakWindows {
	return PeakWindows{MorningStart: 7, MorningEnd: 9, EveningStart: 17, EveningEnd: 19}
}

const hoursPerDay = 24.0

// Oracle answers distance and travel-time queries for both vehicle kinds.
// Trucks use the precomputed road table and are slowed inside peak windows;
// drones fly straight lines at constant speed.
type Oracle struct {
	net     *Network
	windows PeakWindows
}

func NewOracle(net *Network, windows PeakWindows) *Oracle {
	return &Oracle{net: net, windows: windows}
}

// stripMarker maps a rendezvous marker back to the underlying task id so
// lookups work on route stops as well as raw ids.
func stripMarker(id int) int {
	if id >= domain.RendezvousIDOffset {
		return id - domain.RendezvousIDOffset
	}
	return id
}

// Distance returns the physical distance in km between two points: Euclidean
// for drones, shortest road distance for trucks (+Inf when unreachable).
func (o *Oracle) Distance(from, to int, isDrone bool) float64 {
	from = stripMarker(from)
	to = stripMarker(to)
	if from == to {
		return 0
	}
	if isDrone {
		return o.net.Euclidean(from, to)
	}
	return o.net.RoadDistance(from, to)
}

// TravelTime returns the hours needed to travel from one point to another
// starting at the given clock time. Drones ignore traffic entirely. Trucks
// honor per-edge peak factors when considerTraffic is set, splitting the
// segment across window boundaries it straddles; the clock wraps at 24h.
func (o *Oracle) TravelTime(from, to int, startTime float64, vehicle domain.Vehicle, considerTraffic bool) float64 {
	from = stripMarker(from)
	to = stripMarker(to)
	dist := o.Distance(from, to, vehicle.IsDrone())
	if dist == 0 {
		return 0
	}
	if math.IsInf(dist, 1) {
		return math.Inf(1)
	}
	if vehicle.IsDrone() || !considerTraffic {
		return dist / vehicle.Speed
	}

	factors := o.net.Factors(from, to)
	remaining := dist
	clock := math.Mod(startTime, hoursPerDay)
	if clock < 0 {
		clock += hoursPerDay
	}
	total := 0.0

	for remaining > 0 {
		phaseEnd, factor := o.phase(clock, factors)
		effective := vehicle.Speed * factor
		window := phaseEnd - clock
		coverable := effective * window
		if coverable >= remaining {
			total += remaining / effective
			return total
		}
		total += window
		remaining -= coverable
		clock = phaseEnd
		if clock >= hoursPerDay {
			clock = 0
		}
	}
	return total
}

// phase returns the end of the traffic phase containing clock and the speed
// factor active within it.
func (o *Oracle) phase(clock float64, f PeakFactors) (phaseEnd, factor float64) {
	w := o.windows
	switch {
	case clock < w.MorningStart:
		return w.MorningStart, 1.0
	case clock < w.MorningEnd:
		return w.MorningEnd, f.Morning
	case clock < w.EveningStart:
		return w.EveningStart, 1.0
	case clock < w.EveningEnd:
		return w.EveningEnd, f.Evening
	default:
		return hoursPerDay, 1.0
	}
}
