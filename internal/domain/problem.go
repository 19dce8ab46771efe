package domain

import "fmt"

// A fully loaded delivery problem instance. All fields are immutable after
// load except the per-task DepotID set by depot assignment.
type Problem struct {
	Tasks    []TaskPoint // initial tasks first, then extra tasks
	Depots   []Depot
	Vehicles []Vehicle

	InitialCount int
	ExtraCount   int
	TimeWeight   float64 // weight of makespan vs cost in the objective

	taskIndex    map[int]int
	depotIndex   map[int]int
	vehicleIndex map[int]int
}

// BuildIndexes populates the id->index lookup tables. Must be called once
// after the entity slices are final; id collisions are load errors.
func (p *Problem) BuildIndexes() error {
	p.taskIndex = make(map[int]int, len(p.Tasks))
	for i, t := range p.Tasks {
		if _, ok := p.taskIndex[t.ID]; ok {
			return fmt.Errorf("build indexes: duplicate task id %d", t.ID)
		}
		p.taskIndex[t.ID] = i
	}
	p.depotIndex = make(map[int]int, len(p.Depots))
	for i, d := range p.Depots {
		if _, ok := p.depotIndex[d.ID]; ok {
			return fmt.Errorf("build indexes: duplicate depot id %d", d.ID)
		}
		p.depotIndex[d.ID] = i
	}
	p.vehicleIndex = make(map[int]int, len(p.Vehicles))
	for i, v := range p.Vehicles {
		if _, ok := p.vehicleIndex[v.ID]; ok {
			return fmt.Errorf("build indexes: duplicate vehicle id %d", v.ID)
		}
		p.vehicleIndex[v.ID] = i
	}
	return nil
}

func (p *Problem) TaskByID(id int) (TaskPoint, bool) {
	i, ok := p.taskIndex[id]
	if !ok {
		return TaskPoint{}, false
	}
	return p.Tasks[i], true
}

func (p *Problem) DepotByID(id int) (Depot, bool) {
	i, ok := p.depotIndex[id]
	if !ok {
		return Depot{}, false
	}
	return p.Depots[i], true
}

func (p *Problem) VehicleByID(id int) (Vehicle, bool) {
	i, ok := p.vehicleIndex[id]
	if !ok {
		return Vehicle{}, false
	}
	return p.Vehicles[i], true
}

func (p *Problem) IsDepotID(id int) bool {
	_, ok := p.depotIndex[id]
	return ok
}

// InitialTasks returns the tasks known at t=0, in input order.
func (p *Problem) InitialTasks() []TaskPoint {
	return p.Tasks[:p.InitialCount]
}

// ExtraTasks returns the tasks revealed after t=0, in input order.
func (p *Problem) ExtraTasks() []TaskPoint {
	return p.Tasks[p.InitialCount:]
}

// AssignTaskDepot records the depot chosen for a task.
func (p *Problem) AssignTaskDepot(taskID, depotID int) {
	if i, ok := p.taskIndex[taskID]; ok {
		p.Tasks[i].DepotID = depotID
	}
}

// DepotVehicles returns the vehicles based at the given depot, in fleet order.
func (p *Problem) DepotVehicles(depotID int) []Vehicle {
	d, ok := p.DepotByID(depotID)
	if !ok {
		return nil
	}
	out := make([]Vehicle, 0, len(d.VehicleIDs))
	for _, id := range d.VehicleIDs {
		if v, ok := p.VehicleByID(id); ok {
			out = append(out, v)
		}
	}
	return out
}
