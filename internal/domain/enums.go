// Package domain holds the entities of the cold-chain routing engine:
// vehicles, shipments, depots, optimization jobs, routes and their stops.
package domain

// InsulationGrade classifies a vehicle compartment's heat-transfer quality.
// The canonical heat-transfer coefficient is derived from the grade, never
// set directly (see KValue).
type InsulationGrade string

const (
	InsulationPremium  InsulationGrade = "PREMIUM"
	InsulationStandard InsulationGrade = "STANDARD"
	InsulationBasic    InsulationGrade = "BASIC"
)

// KValue returns the canonical heat-transfer coefficient for the grade.
func (g InsulationGrade) KValue() float64 {
	switch g {
	case InsulationPremium:
		return 0.02
	case InsulationBasic:
		return 0.10
	default:
		return 0.05
	}
}

// Valid reports whether g is one of the known insulation grades.
func (g InsulationGrade) Valid() bool {
	switch g {
	case InsulationPremium, InsulationStandard, InsulationBasic:
		return true
	}
	return false
}

// DoorType classifies the cargo-door mechanism, which sets the door
// heat-transfer coefficient during service (door-open) time.
type DoorType string

const (
	DoorRoll  DoorType = "ROLL"
	DoorSwing DoorType = "SWING"
)

// Coefficient returns the canonical door heat-transfer coefficient.
func (d DoorType) Coefficient() float64 {
	if d == DoorSwing {
		return 1.2
	}
	return 0.8
}

// Valid reports whether d is one of the known door types.
func (d DoorType) Valid() bool {
	return d == DoorRoll || d == DoorSwing
}

// VehicleStatus is the operational state of a vehicle.
type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "AVAILABLE"
	VehicleInUse       VehicleStatus = "IN_USE"
	VehicleMaintenance VehicleStatus = "MAINTENANCE"
	VehicleOffline     VehicleStatus = "OFFLINE"
)

// SLATier controls whether a shipment's constraints are hard or soft.
type SLATier string

const (
	SLAStrict   SLATier = "STRICT"
	SLAStandard SLATier = "STANDARD"
)

// Valid reports whether t is a known SLA tier.
func (t SLATier) Valid() bool {
	return t == SLAStrict || t == SLAStandard
}

// ShipmentStatus tracks a shipment through assignment and delivery.
type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "PENDING"
	ShipmentAssigned  ShipmentStatus = "ASSIGNED"
	ShipmentInTransit ShipmentStatus = "IN_TRANSIT"
	ShipmentDelivered ShipmentStatus = "DELIVERED"
	ShipmentFailed    ShipmentStatus = "FAILED"
	ShipmentCancelled ShipmentStatus = "CANCELLED"
)

// JobStatus tracks an OptimizationJob's lifecycle (§3, §4.1).
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// IsTerminal reports whether s is a state the job cannot leave.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// Strategy is the submission-level objective preference (§4.1).
type Strategy string

const (
	StrategyMinimizeVehicles Strategy = "MINIMIZE_VEHICLES"
	StrategyMinimizeDistance Strategy = "MINIMIZE_DISTANCE"
)

// RouteStatus is the execution-tracking state of a materialized route.
// spec.md §3 leaves this enumeration implicit; this implementation resolves
// it to {SCHEDULED, IN_PROGRESS, COMPLETED, ABORTED} (see DESIGN.md).
type RouteStatus string

const (
	RouteScheduled  RouteStatus = "SCHEDULED"
	RouteInProgress RouteStatus = "IN_PROGRESS"
	RouteCompleted  RouteStatus = "COMPLETED"
	RouteAborted    RouteStatus = "ABORTED"
)

// SolverStatus is the mapped native solver status (§4.4).
type SolverStatus string

const (
	SolverOptimal    SolverStatus = "OPTIMAL"
	SolverFeasible   SolverStatus = "FEASIBLE"
	SolverInfeasible SolverStatus = "INFEASIBLE"
	SolverTimeout    SolverStatus = "TIMEOUT"
	SolverNotSolved  SolverStatus = "NOT_SOLVED"
)

// Succeeded reports whether the solver produced a usable solution.
func (s SolverStatus) Succeeded() bool {
	return s == SolverOptimal || s == SolverFeasible
}

// UnassignedReason classifies why a shipment was dropped (SUPPLEMENTED
// feature: the original has no such classifier; this implements the
// "best-guess reason classifier" spec.md §6 names for
// GET /optimization/{id}/violations).
type UnassignedReason string

const (
	ReasonTimeWindow  UnassignedReason = "TIME_WINDOW"
	ReasonCapacity    UnassignedReason = "CAPACITY"
	ReasonTemperature UnassignedReason = "TEMPERATURE"
	ReasonSLA         UnassignedReason = "SLA"
	ReasonCostPenalty UnassignedReason = "COST_PENALTY"
	ReasonNoVehicle   UnassignedReason = "NO_VEHICLE"
	ReasonUnknown     UnassignedReason = "UNKNOWN"
)
