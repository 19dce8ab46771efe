package domain

// Reserved id ranges. Initial task ids keep their file-assigned range; extra
// tasks, depots and rendezvous markers are shifted into disjoint ranges when
// the instance is loaded.
const (
	ExtraIDOffset      = 10000
	DepotIDOffset      = 20000
	RendezvousIDOffset = 30000
)

// Immutable planar coordinates in kilometers (Mercator-projected).
type Point struct {
	X float64
	Y float64
}

// Represents a single pickup/delivery demand point.
// Initial demands are known at planning time (ReleaseTime = 0); extra demands
// reveal themselves at a known future clock time (ReleaseTime > 0).
type TaskPoint struct {
	ID             int
	Pos            Point
	ReleaseTime    float64 // hours
	PickupWeight   float64 // kg collected at the point
	DeliveryWeight float64 // kg dropped at the point
	DepotID        int     // assigned depot; 0 until depot assignment runs
}

// Report whether the task is an extra demand revealed after t=0.
func (t TaskPoint) IsExtra() bool { return t.ReleaseTime > 0 }
