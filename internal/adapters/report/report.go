package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"fleet-route-planner/internal/domain"
	"fleet-route-planner/internal/services"
)

// Writes human-readable route listings and aggregate statistics. Stops print
// as distinguishable tokens: depot#<id>, task#<id>, rdv#<taskId>.
type Printer struct {
	Out io.Writer
}

func NewPrinter(out io.Writer) *Printer { return &Printer{Out: out} }

// PrintStatic lists the congestion-free plan per depot.
func (p *Printer) PrintStatic(problem *domain.Problem, sol services.Solution) {
	fmt.Fprintln(p.Out, "=== static phase ===")
	p.printRoutes(problem, sol, nil)
	p.printTotals(sol)
}

// PrintDynamic lists the re-planned routes with a per-vehicle comparison
// against the static phase.
func (p *Printer) PrintDynamic(problem *domain.Problem, static, dynamic services.Solution) {
	fmt.Fprintln(p.Out, "=== dynamic phase ===")
	p.printRoutes(problem, dynamic, static.Routes)
	p.printTotals(dynamic)
}

func (p *Printer) printRoutes(problem *domain.Problem, sol services.Solution, baseline map[int]domain.Route) {
	for _, depot := range problem.Depots {
		vehicles := problem.DepotVehicles(depot.ID)
		header := false
		for _, v := range vehicles {
			r, ok := sol.Routes[v.ID]
			if !ok || len(r.Stops) <= 2 {
				continue
			}
			if !header {
				fmt.Fprintf(p.Out, "depot %d (%s depot):\n", depot.ID, depotKind(vehicles))
				header = true
			}
			p.printRoute(v, r)
			if baseline != nil {
				p.printComparison(v, baseline[v.ID], r)
			}
		}
	}
}

func (p *Printer) printRoute(v domain.Vehicle, r domain.Route) {
	if v.IsDrone() {
		fmt.Fprintf(p.Out, "  vehicle %d (drone, load %.1fkg, battery %.1fh):\n", v.ID, v.MaxLoad, v.MaxBattery)
	} else {
		fmt.Fprintf(p.Out, "  vehicle %d (truck):\n", v.ID)
	}

	tokens := make([]string, len(r.Stops))
	for i, s := range r.Stops {
		tokens[i] = stopToken(s)
	}
	fmt.Fprintf(p.Out, "    route: %s\n", strings.Join(tokens, " -> "))

	times := make([]string, len(r.Arrivals))
	for i, t := range r.Arrivals {
		times[i] = fmt.Sprintf("%.3f", t)
	}
	fmt.Fprintf(p.Out, "    arrivals: %sh\n", strings.Join(times, " "))
	fmt.Fprintf(p.Out, "    tasks: %d, cost: %.2f\n", r.TaskCount(), v.UnitCost*float64(r.TaskCount()))
}

func (p *Printer) printComparison(v domain.Vehicle, static, dynamic domain.Route) {
	if static.Empty() || len(static.Stops) <= 2 {
		return
	}
	dt := dynamic.CompletionTime() - static.CompletionTime()
	dn := dynamic.TaskCount() - static.TaskCount()
	fmt.Fprintf(p.Out, "    vs static: time %+.3fh, tasks %+d\n", dt, dn)
}

func (p *Printer) printTotals(sol services.Solution) {
	fmt.Fprintf(p.Out, "tasks served: %d\n", sol.TasksServed)
	fmt.Fprintf(p.Out, "makespan: %.3fh\n", sol.Makespan)
	fmt.Fprintf(p.Out, "max completion time: %.3fh\n", sol.MaxCompletion)
	fmt.Fprintf(p.Out, "total cost: %.2f\n", sol.TotalCost)
}

// PrintValidation lists invariant breaches, sorted for stable output.
func (p *Printer) PrintValidation(phase string, res services.ValidationResult) {
	if res.OK() {
		fmt.Fprintf(p.Out, "validation (%s): ok\n", phase)
		return
	}
	fmt.Fprintf(p.Out, "validation (%s): %d error(s)\n", phase, len(res.Errors))
	errs := append([]string(nil), res.Errors...)
	sort.Strings(errs)
	for _, e := range errs {
		fmt.Fprintf(p.Out, "  - %s\n", e)
	}
}

func stopToken(s domain.Stop) string {
	switch s.Kind {
	case domain.StopDepot:
		return fmt.Sprintf("depot#%d", s.ID)
	case domain.StopRendezvous:
		return fmt.Sprintf("rdv#%d", s.ID)
	default:
		return fmt.Sprintf("task#%d", s.ID)
	}
}

func depotKind(vehicles []domain.Vehicle) string {
	for _, v := range vehicles {
		if !v.IsDrone() {
			return "truck"
		}
	}
	if len(vehicles) == 0 {
		return "empty"
	}
	return "drone"
}
