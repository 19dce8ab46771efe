package services

import (
	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/network"
)

// edgeSpec is a road segment between two node ids with a length in km.
type edgeSpec struct {
	a, b   int
	length float64
}

type fixture struct {
	problem *domain.Problem
	net     *network.Network
	oracle  *network.Oracle
}

// newFixture wires a small in-memory instance: coordinates come from the
// entity positions, roads from the edge list, and peak factors default to
// the network's 0.3 unless overridden by the test.
func newFixture(tasks []domain.TaskPoint, depots []domain.Depot, vehicles []domain.Vehicle, edges []edgeSpec) *fixture {
	problem := &domain.Problem{
		Tasks:      tasks,
		Depots:     depots,
		Vehicles:   vehicles,
		TimeWeight: 0.5,
	}
	for _, t := range tasks {
		if !t.IsExtra() {
			problem.InitialCount++
		} else {
			problem.ExtraCount++
		}
	}
	if err := problem.BuildIndexes(); err != nil {
		panic(err)
	}

	net := network.New()
	for _, t := range tasks {
		net.AddNode(t.ID, t.Pos)
	}
	for _, d := range depots {
		net.AddNode(d.ID, d.Pos)
	}
	for _, e := range edges {
		net.AddEdge(e.a, e.b, e.length)
	}
	if err := net.ComputeShortestPaths(); err != nil {
		panic(err)
	}

	return &fixture{
		problem: problem,
		net:     net,
		oracle:  network.NewOracle(net, network.DefaultPeakWindows()),
	}
}

// networkNeutral disables congestion on an edge.
func networkNeutral() network.PeakFactors {
	return network.PeakFactors{Morning: 1.0, Evening: 1.0}
}

func (f *fixture) constructor() *RouteConstructor {
	return &RouteConstructor{Problem: f.problem, Oracle: f.oracle}
}

func stopIDs(r domain.Route) []int {
	out := make([]int, len(r.Stops))
	for i, s := range r.Stops {
		out[i] = s.Marker()
	}
	return out
}
