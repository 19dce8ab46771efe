package domain

// Stop discriminator. A route stop is a depot visit, an ordinary task visit,
// or a rendezvous: the drone ends a sortie at a task point that a truck is
// scheduled to visit and waits there to recharge and reload.
type StopKind int

const (
	StopDepot StopKind = iota
	StopTask
	StopRendezvous
)

// A single stop on a route. ID is the depot id for depot stops and the task
// id otherwise; a rendezvous stop references the task the truck visits.
type Stop struct {
	Kind StopKind
	ID   int
}

func DepotStop(id int) Stop          { return Stop{Kind: StopDepot, ID: id} }
func TaskStop(id int) Stop           { return Stop{Kind: StopTask, ID: id} }
func RendezvousStop(taskID int) Stop { return Stop{Kind: StopRendezvous, ID: taskID} }

// Marker returns the serialized id of the stop: depot and task ids verbatim,
// rendezvous stops offset by RendezvousIDOffset over the referenced task id.
func (s Stop) Marker() int {
	if s.Kind == StopRendezvous {
		return s.ID + RendezvousIDOffset
	}
	return s.ID
}

// StopFromMarker decodes a serialized stop id back into a Stop.
func StopFromMarker(id int) Stop {
	switch {
	case id >= RendezvousIDOffset:
		return RendezvousStop(id - RendezvousIDOffset)
	case id >= DepotIDOffset:
		return DepotStop(id)
	default:
		return TaskStop(id)
	}
}

// An ordered vehicle route starting and ending at the vehicle's home depot,
// with per-stop arrival times in hours. Arrivals[0] is always 0. An empty
// route marks a failed construction.
type Route struct {
	VehicleID int
	Stops     []Stop
	Arrivals  []float64
}

func (r Route) Empty() bool { return len(r.Stops) == 0 }

// TaskCount returns the number of real demand points served on the route.
// Depot re-entries and rendezvous stops do not count.
func (r Route) TaskCount() int {
	n := 0
	for _, s := range r.Stops {
		if s.Kind == StopTask {
			n++
		}
	}
	return n
}

// Makespan returns the arrival time at the final real task of the route;
// trailing rendezvous and depot stops are skipped. Zero for empty or
// task-free routes.
func (r Route) Makespan() float64 {
	for i := len(r.Stops) - 1; i >= 0; i-- {
		if r.Stops[i].Kind == StopTask {
			return r.Arrivals[i]
		}
	}
	return 0
}

// CompletionTime returns the arrival back at the depot, 0 for empty routes.
func (r Route) CompletionTime() float64 {
	if len(r.Arrivals) == 0 {
		return 0
	}
	return r.Arrivals[len(r.Arrivals)-1]
}
