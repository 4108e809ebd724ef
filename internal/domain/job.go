package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobParameters is the closed set of submission parameters accepted by
// §4.1. Zero values are filled in from pkg/config.SolverConfig defaults by
// the orchestrator before persistence.
type JobParameters struct {
	TimeLimitSeconds       int      `json:"time_limit_seconds"`
	Strategy               Strategy `json:"strategy"`
	AmbientTemperature     float64  `json:"ambient_temperature"`
	InitialVehicleTemp     float64  `json:"initial_vehicle_temp"`
	AllowPartial           bool     `json:"allow_partial"`
	MaxVehicles            int      `json:"max_vehicles"` // 0 = unlimited
	PlannedDepartureTime   string   `json:"planned_departure_time"` // "HH:MM"
}

// ResultSummary is written once a job reaches a terminal state (§4.5.3).
type ResultSummary struct {
	RoutesCreated        int     `json:"routes_created"`
	ShipmentsAssigned    int     `json:"shipments_assigned"`
	ShipmentsUnassigned  int     `json:"shipments_unassigned"`
	TotalDistanceKM       float64 `json:"total_distance_km"`
	TotalDurationMinutes  float64 `json:"total_duration_minutes"`
	TotalCost             float64 `json:"total_cost"`
	SolverStatus          string  `json:"solver_status"`
	SolverTimeSeconds     float64 `json:"solver_time_seconds"`
}

// OptimizationJob is a single planning attempt (§3, §4.1).
type OptimizationJob struct {
	ID       uuid.UUID
	Status   JobStatus
	Progress int // 0..100

	PlanDate time.Time

	VehicleIDFilter  []uuid.UUID
	ShipmentIDFilter []uuid.UUID
	DepotOverride    *uuid.UUID

	Parameters JobParameters

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	RouteIDs              []uuid.UUID
	UnassignedShipmentIDs []uuid.UUID
	ResultSummary         *ResultSummary

	ErrorMessage   *string
	ErrorTraceback *string

	BrokerTaskID string
}

// Duration returns CompletedAt - StartedAt, or zero if the job has not
// completed.
func (j *OptimizationJob) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

// Cancellable reports whether the job may still be cancelled (§4.1).
func (j *OptimizationJob) Cancellable() bool {
	return j.Status == JobPending || j.Status == JobRunning
}
