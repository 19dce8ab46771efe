package network

import (
	"math"

	"fleet-route-planner/internal/domain"
)

// EarthRadiusKm is the spherical-Earth radius used by the projection.
const EarthRadiusKm = 6371.0

// Project converts geographic coordinates to planar kilometers using a
// web-Mercator style projection on a spherical Earth.
func Project(latitude, longitude float64) domain.Point {
	lat := latitude * math.Pi / 180.0
	lon := longitude * math.Pi / 180.0
	return domain.Point{
		X: EarthRadiusKm * lon,
		Y: EarthRadiusKm * math.Log(math.Tan(math.Pi/4+lat/2)),
	}
}
