package domain

// Vehicle kind tag. Kind-specific fields of Vehicle are meaningful only for
// the drone case.
type VehicleKind int

const (
	KindTruck VehicleKind = iota
	KindDrone
)

func (k VehicleKind) String() string {
	if k == KindDrone {
		return "drone"
	}
	return "truck"
}

// A delivery vehicle based at a depot. Trucks travel the road network and are
// slowed by peak-hour congestion; drones fly straight lines under battery and
// payload limits.
type Vehicle struct {
	ID         int
	Kind       VehicleKind
	Speed      float64 // km/h
	UnitCost   float64 // cost per served demand point
	MaxLoad    float64 // kg; drones only
	MaxBattery float64 // hours of flight per charge; drones only
	DepotID    int
}

func (v Vehicle) IsDrone() bool { return v.Kind == KindDrone }
