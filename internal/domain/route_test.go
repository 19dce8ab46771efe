package domain

import "testing"

func TestStopMarkerRoundTrip(t *testing.T) {
	cases := []Stop{
		TaskStop(7),
		TaskStop(10042),
		DepotStop(20001),
		RendezvousStop(7),
		RendezvousStop(10042),
	}

	for _, s := range cases {
		got := StopFromMarker(s.Marker())
		if got != s {
			t.Errorf("StopFromMarker(%d) = %+v, want %+v", s.Marker(), got, s)
		}
	}

	if m := RendezvousStop(7).Marker(); m != 30007 {
		t.Errorf("rendezvous marker = %d, want 30007", m)
	}
}

func TestRouteMakespanAndTaskCount(t *testing.T) {
	r := Route{
		VehicleID: 3,
		Stops: []Stop{
			DepotStop(20001),
			TaskStop(1),
			TaskStop(2),
			RendezvousStop(5),
			DepotStop(20001),
		},
		Arrivals: []float64{0, 0.2, 0.5, 0.7, 1.0},
	}

	if got := r.TaskCount(); got != 2 {
		t.Fatalf("TaskCount = %d, want 2", got)
	}
	// Makespan is the arrival at the last real task, not the rendezvous or
	// the return to depot.
	if got := r.Makespan(); got != 0.5 {
		t.Fatalf("Makespan = %v, want 0.5", got)
	}
	if got := r.CompletionTime(); got != 1.0 {
		t.Fatalf("CompletionTime = %v, want 1.0", got)
	}
}

func TestEmptyRoute(t *testing.T) {
	var r Route
	if !r.Empty() {
		t.Fatal("zero route should be empty")
	}
	if r.Makespan() != 0 || r.CompletionTime() != 0 || r.TaskCount() != 0 {
		t.Fatal("zero route metrics should all be 0")
	}
}
