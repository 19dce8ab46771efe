package ports

import (
	"context"
	"time"
)

// A persisted route of one vehicle within a solve phase. Stops are stored in
// serialized marker form (task/depot ids verbatim, rendezvous offset).
type PlanRoute struct {
	Phase     string // "static" or "dynamic"
	VehicleID int
	Markers   []int
	Arrivals  []float64
	Makespan  float64
	Cost      float64
}

// One persisted solve run over a single input instance.
type PlanRun struct {
	ID        string
	InputFile string
	CreatedAt time.Time
	Routes    []PlanRoute
}

// Port: a boundary for persisting and retrieving solve runs.
type PlanStore interface {
	SaveRun(ctx context.Context, run PlanRun) error
	ListRuns(ctx context.Context) ([]PlanRun, error)
}
