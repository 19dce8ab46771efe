package ports

import "fleet-route-planner/internal/domain"

// Contract for distance and travel-time queries between instance points.
// Implementations strip rendezvous markers before lookup.
type TravelOracle interface {
	// Physical distance in km between two points; +Inf when unreachable.
	Distance(from, to int, isDrone bool) float64
	// Travel duration in hours starting at the given clock time. Peak-hour
	// congestion applies to trucks only, and only when considerTraffic is set.
	TravelTime(from, to int, startTime float64, vehicle domain.Vehicle, considerTraffic bool) float64
}
