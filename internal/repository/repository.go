// Package repository is the pgx-backed persistence layer for every entity
// spec.md §3 names: vehicles, shipments, depots, optimization jobs, routes
// and route stops, plus the thin user table the auth boundary needs.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"logistics/internal/domain"
)

// querier is the subset of database.DB every postgres repository actually
// calls. pgx.Tx satisfies it too, so a repository can be pointed at either
// a pool-backed database.DB or a transaction without a wrapper type —
// the materializer uses this to commit a route, its stops and the
// shipment-status flips as one unit of work (§4.5.3).
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// VehicleRepository persists fleet vehicles.
type VehicleRepository interface {
	Create(ctx context.Context, v *domain.Vehicle) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error)
	Update(ctx context.Context, v *domain.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter VehicleFilter) ([]*domain.Vehicle, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Vehicle, error)
}

// VehicleFilter narrows List results; zero values mean "no filter".
type VehicleFilter struct {
	Status VehicleStatusFilter
	Limit  int
	Offset int
}

// VehicleStatusFilter is a nullable equality filter on VehicleStatus.
type VehicleStatusFilter struct {
	Value domain.VehicleStatus
	Set   bool
}

// ShipmentRepository persists delivery orders.
type ShipmentRepository interface {
	Create(ctx context.Context, s *domain.Shipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error)
	Update(ctx context.Context, s *domain.Shipment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ShipmentFilter) ([]*domain.Shipment, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error)
	ListPending(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error)
	ResetAssignments(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// ShipmentFilter narrows List results; zero values mean "no filter".
type ShipmentFilter struct {
	Status  ShipmentStatusFilter
	SLATier SLATierFilter
	Limit   int
	Offset  int
}

// ShipmentStatusFilter is a nullable equality filter on ShipmentStatus.
type ShipmentStatusFilter struct {
	Value domain.ShipmentStatus
	Set   bool
}

// SLATierFilter is a nullable equality filter on SLATier.
type SLATierFilter struct {
	Value domain.SLATier
	Set   bool
}

// DepotRepository persists depot locations.
type DepotRepository interface {
	Create(ctx context.Context, d *domain.Depot) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Depot, error)
	Update(ctx context.Context, d *domain.Depot) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.Depot, error)
	GetDefault(ctx context.Context) (*domain.Depot, error)
}

// JobRepository persists optimization job lifecycle state.
type JobRepository interface {
	Create(ctx context.Context, j *domain.OptimizationJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OptimizationJob, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error
	// CompareAndSwapStatus applies to when only if the job's current status
	// still equals from, resolving the cancellation race of spec.md §5.2:
	// "the final RUNNING-or-later write overwrites a pending CANCELLED only
	// if the row is still RUNNING at write time". Returns false, nil if the
	// row had already moved on.
	CompareAndSwapStatus(ctx context.Context, id uuid.UUID, from, to domain.JobStatus) (bool, error)
	MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time, routeIDs, unassignedIDs []uuid.UUID, summary *domain.ResultSummary) error
	MarkFailed(ctx context.Context, id uuid.UUID, completedAt time.Time, errMsg, traceback string) error
	List(ctx context.Context, limit, offset int) ([]*domain.OptimizationJob, error)
}

// RouteRepository persists optimization results: routes and their stops.
type RouteRepository interface {
	Create(ctx context.Context, r *domain.Route, stops []domain.RouteStop) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Route, error)
	GetStops(ctx context.Context, routeID uuid.UUID) ([]domain.RouteStop, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RouteStatus) error
	UpdateStopStatus(ctx context.Context, stopID uuid.UUID, arrivalTemp *float64) error
	List(ctx context.Context, filter RouteFilter) ([]*domain.Route, error)
	// DeleteAll removes every route (and, by cascade, every route_stop),
	// the §6 POST /shipments/reset endpoint's other half.
	DeleteAll(ctx context.Context) (int64, error)
}

// RouteFilter narrows List results; zero values mean "no filter".
type RouteFilter struct {
	PlanDate  *time.Time
	Status    RouteStatusFilter
	VehicleID *uuid.UUID
	Limit     int
	Offset    int
}

// RouteStatusFilter is a nullable equality filter on RouteStatus.
type RouteStatusFilter struct {
	Value domain.RouteStatus
	Set   bool
}

// UserRepository persists the thin account records behind POST /auth/token.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
