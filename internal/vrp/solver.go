package vrp

import (
	"context"
	"time"

	"logistics/internal/domain"
)

// Driver runs the construction heuristic and local search over a Model and
// reports a typed Solution (§4.4). It carries out no business logic beyond
// the search itself: route-code formatting, temperature propagation and
// persistence all live downstream, in the materializer.
type Driver struct {
	timeLimit time.Duration
}

// Option configures a Driver.
type Option func(*Driver)

// WithTimeLimit overrides the wall-clock budget; Solve also honors
// model.TimeLimitSeconds when this is left at its zero value.
func WithTimeLimit(d time.Duration) Option {
	return func(drv *Driver) { drv.timeLimit = d }
}

// NewDriver builds a Driver with the given options applied.
func NewDriver(opts ...Option) *Driver {
	drv := &Driver{}
	for _, opt := range opts {
		opt(drv)
	}
	return drv
}

// Solve constructs an initial assignment with cheapest insertion and then
// improves it with bounded local search, stopping at ctx's deadline or the
// model's/driver's time limit, whichever comes first (§4.3f, §4.4).
func (d *Driver) Solve(ctx context.Context, m *Model) (*Solution, error) {
	start := time.Now()

	limit := d.timeLimit
	if limit <= 0 {
		limit = time.Duration(m.TimeLimitSeconds) * time.Second
	}
	if limit <= 0 {
		limit = 30 * time.Second
	}
	deadline := start.Add(limit)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	routes := make([][]int, len(m.Vehicles))
	unassigned := make(map[int]bool, len(m.Nodes)-1)
	for _, n := range m.Nodes[1:] {
		unassigned[n.Index] = true
	}

	if len(m.Vehicles) == 0 {
		return &Solution{
			Status:     domain.SolverNotSolved,
			Unassigned: unassignedAll(m, unassigned, domain.ReasonNoVehicle),
			SolveTime:  time.Since(start),
		}, nil
	}

	dropped, infeasible := cheapestInsertion(m, routes, unassigned)

	convergedBeforeDeadline := false
	if time.Now().Before(deadline) {
		convergedBeforeDeadline = improve(m, routes, deadline)
	}

	timedOut := time.Now().After(deadline) || ctxErrIsDeadline(ctx)

	sol := &Solution{
		Routes:     buildRouteSolutions(m, routes),
		Unassigned: buildUnassigned(m, dropped, infeasible),
	}
	sol.ObjectiveValue = objective(m, routes, dropped, infeasible)
	sol.SolveTime = time.Since(start)

	hasStrictInfeasible := false
	for _, nodeIdx := range infeasible {
		if m.Nodes[nodeIdx].IsStrictSLA {
			hasStrictInfeasible = true
			break
		}
	}

	switch {
	case hasStrictInfeasible:
		sol.Status = domain.SolverInfeasible
	case timedOut:
		sol.Status = domain.SolverTimeout
	case convergedBeforeDeadline && len(dropped) == 0 && len(infeasible) == 0:
		sol.Status = domain.SolverOptimal
	default:
		sol.Status = domain.SolverFeasible
	}

	return sol, nil
}

func ctxErrIsDeadline(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}

func unassignedAll(m *Model, set map[int]bool, reason domain.UnassignedReason) []Unassigned {
	out := make([]Unassigned, 0, len(set))
	for nodeIdx := range set {
		out = append(out, Unassigned{ShipmentID: m.Nodes[nodeIdx].ShipmentID, Reason: reason})
	}
	return out
}

func buildRouteSolutions(m *Model, routes [][]int) []RouteSolution {
	out := make([]RouteSolution, 0, len(routes))
	for vIdx, seq := range routes {
		if len(seq) == 0 {
			continue
		}
		arrivals, _ := routeTiming(m, seq)
		out = append(out, RouteSolution{
			VehicleIndex:   vIdx,
			NodeIndices:    seq,
			ArrivalMinutes: arrivals,
		})
	}
	return out
}

func buildUnassigned(m *Model, dropped, infeasible []int) []Unassigned {
	out := make([]Unassigned, 0, len(dropped)+len(infeasible))
	for _, idx := range dropped {
		out = append(out, Unassigned{ShipmentID: m.Nodes[idx].ShipmentID, Reason: domain.ReasonCostPenalty})
	}
	for _, idx := range infeasible {
		out = append(out, Unassigned{ShipmentID: m.Nodes[idx].ShipmentID, Reason: soloInfeasibleReason(m, idx)})
	}
	return out
}

// soloInfeasibleReason re-evaluates node idx alone against every vehicle to
// classify why cheapestInsertion never gave it a home: capacity, its time
// window, or (§4.2/§8 invariant 4) a STRICT temperature bound no vehicle in
// the fleet can honor.
func soloInfeasibleReason(m *Model, idx int) domain.UnassignedReason {
	node := &m.Nodes[idx]

	if _, ok := routeTiming(m, []int{idx}); !ok {
		return domain.ReasonTimeWindow
	}

	capacityFits := false
	thermalFits := false
	for vIdx, v := range m.Vehicles {
		if node.DemandWeightG > v.CapacityWeightG || node.DemandVolumeL > v.CapacityVolumeL {
			continue
		}
		capacityFits = true
		if thermallyFeasibleRoute(m, vIdx, []int{idx}) {
			thermalFits = true
			break
		}
	}

	switch {
	case !capacityFits:
		return domain.ReasonCapacity
	case !thermalFits:
		return domain.ReasonTemperature
	case node.IsStrictSLA:
		return domain.ReasonSLA
	default:
		return domain.ReasonUnknown
	}
}

// objective sums fleet fixed costs, route distance costs and the penalty
// owed for every unserved node (§4.3d/e): dropped nodes pay their
// priority-weighted penalty, infeasible STRICT nodes pay the model's flat
// infeasible cost.
func objective(m *Model, routes [][]int, dropped, infeasible []int) float64 {
	total := 0.0
	for vIdx, seq := range routes {
		if len(seq) == 0 {
			continue
		}
		total += float64(m.Vehicles[vIdx].FixedCost)
		total += float64(routeDistance(m, seq)) / 1000 * m.DistanceCostPerKM
	}
	for _, idx := range dropped {
		total += float64(m.Nodes[idx].DropPenalty)
	}
	for _, idx := range infeasible {
		if m.Nodes[idx].IsStrictSLA {
			total += float64(m.InfeasibleCost)
		} else {
			total += float64(m.Nodes[idx].DropPenalty)
		}
	}
	return total
}
