package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/network"
)

// Parses the whitespace-token instance format:
//
//	initialCount extraCount truckDepotCount droneDepotCount
//	droneSpeed truckSpeed droneUnitCost truckUnitCost droneMaxLoad droneMaxBattery timeWeight
//	edgeCount, then edgeCount edges: nodeA nodeB lengthMeters
//	initial tasks: id lon lat pickupKg deliveryKg
//	truck depots:  id lon lat truckCount
//	drone depots:  id lon lat droneCount
//	extra tasks:   id lon lat pickupKg deliveryKg releaseMinutes
//	optional per-edge peak factors until EOF: nodeA nodeB morning evening
//
// Extra task ids are offset by +10000 and depot ids by +20000 on load; edge
// endpoints in the file stay raw and are registered for every id variant
// present in the instance.

type rawEdge struct {
	a, b   int
	length float64
}

type rawFactors struct {
	a, b             int
	morning, evening float64
}

// Load reads and precomputes a problem instance from disk.
func Load(path string) (*domain.Problem, *network.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load problem: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads an instance, applies the id offsets, registers the road graph
// and runs the all-pairs precomputation.
func Parse(r io.Reader) (*domain.Problem, *network.Network, error) {
	tr := newTokenReader(r)

	initialCount := tr.nextInt("initialCount")
	extraCount := tr.nextInt("extraCount")
	truckDepotCount := tr.nextInt("truckDepotCount")
	droneDepotCount := tr.nextInt("droneDepotCount")

	droneSpeed := tr.nextFloat("droneSpeed")
	truckSpeed := tr.nextFloat("truckSpeed")
	droneUnitCost := tr.nextFloat("droneUnitCost")
	truckUnitCost := tr.nextFloat("truckUnitCost")
	droneMaxLoad := tr.nextFloat("droneMaxLoad")
	droneMaxBattery := tr.nextFloat("droneMaxBattery")
	timeWeight := tr.nextFloat("timeWeight")

	edgeCount := tr.nextInt("edgeCount")
	if tr.err != nil {
		return nil, nil, fmt.Errorf("load problem: %w", tr.err)
	}
	if initialCount < 0 || extraCount < 0 || truckDepotCount < 0 || droneDepotCount < 0 || edgeCount < 0 {
		return nil, nil, fmt.Errorf("load problem: negative count in header")
	}

	edges := make([]rawEdge, 0, edgeCount)
	for i := 0; i < edgeCount; i++ {
		a := tr.nextInt("edge nodeA")
		b := tr.nextInt("edge nodeB")
		meters := tr.nextFloat("edge length")
		edges = append(edges, rawEdge{a: a, b: b, length: meters / 1000.0})
	}

	problem := &domain.Problem{
		InitialCount: initialCount,
		ExtraCount:   extraCount,
		TimeWeight:   timeWeight,
	}
	net := network.New()

	for i := 0; i < initialCount; i++ {
		id := tr.nextInt("initial task id")
		lon := tr.nextFloat("initial task longitude")
		lat := tr.nextFloat("initial task latitude")
		pickup := tr.nextFloat("initial task pickup")
		delivery := tr.nextFloat("initial task delivery")
		p := network.Project(lat, lon)
		problem.Tasks = append(problem.Tasks, domain.TaskPoint{
			ID:             id,
			Pos:            p,
			PickupWeight:   pickup,
			DeliveryWeight: delivery,
		})
		net.AddNode(id, p)
	}

	vehicleID := 1
	readDepots := func(count int, kind domain.VehicleKind) {
		for i := 0; i < count; i++ {
			id := tr.nextInt("depot id") + domain.DepotIDOffset
			lon := tr.nextFloat("depot longitude")
			lat := tr.nextFloat("depot latitude")
			fleetSize := tr.nextInt("depot fleet size")
			p := network.Project(lat, lon)
			depot := domain.Depot{ID: id, Pos: p}
			for j := 0; j < fleetSize; j++ {
				v := domain.Vehicle{
					ID:       vehicleID,
					Kind:     kind,
					DepotID:  id,
					Speed:    truckSpeed,
					UnitCost: truckUnitCost,
				}
				if kind == domain.KindDrone {
					v.Speed = droneSpeed
					v.UnitCost = droneUnitCost
					v.MaxLoad = droneMaxLoad
					v.MaxBattery = droneMaxBattery
				}
				problem.Vehicles = append(problem.Vehicles, v)
				depot.VehicleIDs = append(depot.VehicleIDs, vehicleID)
				vehicleID++
			}
			problem.Depots = append(problem.Depots, depot)
			net.AddNode(id, p)
		}
	}
	readDepots(truckDepotCount, domain.KindTruck)
	readDepots(droneDepotCount, domain.KindDrone)

	for i := 0; i < extraCount; i++ {
		id := tr.nextInt("extra task id") + domain.ExtraIDOffset
		lon := tr.nextFloat("extra task longitude")
		lat := tr.nextFloat("extra task latitude")
		pickup := tr.nextFloat("extra task pickup")
		delivery := tr.nextFloat("extra task delivery")
		releaseMinutes := tr.nextFloat("extra task release")
		p := network.Project(lat, lon)
		problem.Tasks = append(problem.Tasks, domain.TaskPoint{
			ID:             id,
			Pos:            p,
			ReleaseTime:    releaseMinutes / 60.0,
			PickupWeight:   pickup,
			DeliveryWeight: delivery,
		})
		net.AddNode(id, p)
	}

	var factors []rawFactors
	for {
		a, ok := tr.tryInt()
		if !ok {
			break
		}
		b := tr.nextInt("peak factor nodeB")
		morning := tr.nextFloat("peak factor morning")
		evening := tr.nextFloat("peak factor evening")
		factors = append(factors, rawFactors{a: a, b: b, morning: morning, evening: evening})
	}
	if tr.err != nil {
		return nil, nil, fmt.Errorf("load problem: %w", tr.err)
	}

	sort.Slice(problem.Depots, func(i, j int) bool { return problem.Depots[i].ID < problem.Depots[j].ID })
	if err := problem.BuildIndexes(); err != nil {
		return nil, nil, fmt.Errorf("load problem: %w", err)
	}

	// Edge endpoints are raw file ids: they may name an initial task, an
	// extra task, a depot, or a plain road junction. Register the segment
	// for every variant present in the instance so the offset id scheme
	// resolves consistently.
	variants := func(raw int) []int {
		var out []int
		for _, cand := range []int{raw, raw + domain.ExtraIDOffset, raw + domain.DepotIDOffset} {
			if _, ok := net.Coord(cand); ok {
				out = append(out, cand)
			}
		}
		if len(out) == 0 {
			out = append(out, raw) // junction node without coordinates
		}
		return out
	}

	for _, e := range edges {
		for _, a := range variants(e.a) {
			for _, b := range variants(e.b) {
				net.AddEdge(a, b, e.length)
			}
		}
	}
	for _, pf := range factors {
		for _, a := range variants(pf.a) {
			for _, b := range variants(pf.b) {
				net.SetPeakFactors(a, b, network.PeakFactors{Morning: pf.morning, Evening: pf.evening})
			}
		}
	}

	if err := net.ComputeShortestPaths(); err != nil {
		return nil, nil, fmt.Errorf("load problem: %w", err)
	}
	return problem, net, nil
}

// tokenReader pulls whitespace-separated tokens, remembering the first error.
type tokenReader struct {
	sc  *bufio.Scanner
	err error
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	return &tokenReader{sc: sc}
}

func (t *tokenReader) next(field string) (string, bool) {
	if t.err != nil {
		return "", false
	}
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			t.err = fmt.Errorf("read %s: %w", field, err)
		} else {
			t.err = fmt.Errorf("read %s: unexpected end of input", field)
		}
		return "", false
	}
	return t.sc.Text(), true
}

func (t *tokenReader) nextInt(field string) int {
	tok, ok := t.next(field)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		t.err = fmt.Errorf("parse %s: %q is not an integer", field, tok)
		return 0
	}
	return n
}

func (t *tokenReader) nextFloat(field string) float64 {
	tok, ok := t.next(field)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		t.err = fmt.Errorf("parse %s: %q is not a number", field, tok)
		return 0
	}
	return f
}

// tryInt reads an integer if any token remains; a clean EOF is not an error.
func (t *tokenReader) tryInt() (int, bool) {
	if t.err != nil {
		return 0, false
	}
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			t.err = err
		}
		return 0, false
	}
	tok := t.sc.Text()
	n, err := strconv.Atoi(tok)
	if err != nil {
		t.err = fmt.Errorf("parse peak factor nodeA: %q is not an integer", tok)
		return 0, false
	}
	return n, true
}
