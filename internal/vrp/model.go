// Package vrp builds a backend-neutral constraint model from domain
// entities (§4.3) and drives a hand-written constrained local-search solver
// over it (§4.4). No VRP library exists in the retrieval pack this module
// was built from, so the solver itself — construction heuristic plus a
// bounded local-search improvement phase — is implemented here rather than
// delegated to a third-party routing engine.
package vrp

import (
	"github.com/google/uuid"

	"logistics/internal/thermo"
)

// Node is one location in the constraint model: index 0 is always the
// depot, indices 1..N-1 are shipments in the order handed to Build.
type Node struct {
	Index      int
	ShipmentID uuid.UUID // zero value for the depot node

	DemandWeightG int
	DemandVolumeL int

	ServiceMinutes int

	// WindowStartMin/WindowEndMin is the union-hull domain used for the
	// solver's time-cumul variable (§4.3c); Windows preserves the original
	// per-interval list so the materializer can report which window was
	// actually hit.
	WindowStartMin int
	WindowEndMin   int
	Windows        []Window

	TempLimitUpper float64
	TempLimitLower *float64
	IsStrictSLA    bool

	Priority    int
	DropPenalty int
}

// Window is a wall-clock interval expressed in minutes from midnight.
type Window struct {
	StartMinutes int
	EndMinutes   int
}

// Contains reports whether arrivalMinutes falls within the window.
func (w Window) Contains(arrivalMinutes int) bool {
	return arrivalMinutes >= w.StartMinutes && arrivalMinutes <= w.EndMinutes
}

// VehicleSpec is one vehicle available to serve the instance.
type VehicleSpec struct {
	Index int
	ID    uuid.UUID

	CapacityWeightG int
	CapacityVolumeL int

	FixedCost int // applied once, iff the vehicle serves >= 1 node (§4.3e)

	Thermo      thermo.VehicleParams
	InitialTemp float64
}

// Model is the backend-neutral constraint model the driver solves (§4.3).
type Model struct {
	Nodes    []Node
	Vehicles []VehicleSpec

	DistanceMeters [][]int
	TimeMinutes    [][]int // travel time only, excludes service time

	EarliestDepartureMinutes int
	HorizonMinutes           int // 24*60
	SlackMinutes             int // 60

	AmbientTemperature float64

	TimeLimitSeconds int
	MaxVehicles      int // 0 = unlimited

	DistanceCostPerKM float64
	InfeasibleCost    int
}

// NodeCount returns the number of nodes including the depot.
func (m *Model) NodeCount() int {
	return len(m.Nodes)
}
