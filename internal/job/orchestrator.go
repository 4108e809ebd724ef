// Package job is the §4.1 orchestrator: submission, polling and
// cancellation of optimization jobs, plus the worker pool that dequeues a
// submitted job and drives it through the solve-and-materialize lifecycle.
// Grounded on original_source/app/services/tasks.py's run_optimization task
// for the exact lifecycle (status transitions, progress bucket formula,
// soft/hard timeout, rollback-then-FAILED-commit) and on
// services/simulation-svc/internal/service/simulation.go's service-struct
// shape.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"logistics/internal/domain"
	"logistics/internal/repository"
	"logistics/pkg/apperror"
	"logistics/pkg/config"
	"logistics/pkg/database"
	"logistics/pkg/logger"
	"logistics/pkg/metrics"
	"logistics/pkg/telemetry"
)

// broker is the subset of *queue.Broker the orchestrator and worker need;
// a narrow interface lets tests substitute a fake instead of dialing redis.
type broker interface {
	Enqueue(ctx context.Context, jobID uuid.UUID) error
	Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, error)
	Ack(ctx context.Context, jobID uuid.UUID) error
	Cancel(ctx context.Context, jobID uuid.UUID) error
	IsCancelled(ctx context.Context, jobID uuid.UUID) (bool, error)
	ClearCancelled(ctx context.Context, jobID uuid.UUID) error
	IncrementRetries(ctx context.Context, jobID uuid.UUID) (int64, error)
	ClearRetries(ctx context.Context, jobID uuid.UUID) error
}

// Orchestrator implements §4.1's public contract: Submit, Poll, Cancel.
type Orchestrator struct {
	db        database.DB
	jobs      repository.JobRepository
	vehicles  repository.VehicleRepository
	shipments repository.ShipmentRepository
	depots    repository.DepotRepository
	broker    broker

	solverCfg config.SolverConfig
	depotCfg  config.DepotConfig
	queueCfg  config.QueueConfig
}

// New builds an Orchestrator.
func New(
	db database.DB,
	jobs repository.JobRepository,
	vehicles repository.VehicleRepository,
	shipments repository.ShipmentRepository,
	depots repository.DepotRepository,
	broker broker,
	solverCfg config.SolverConfig,
	depotCfg config.DepotConfig,
	queueCfg config.QueueConfig,
) *Orchestrator {
	return &Orchestrator{
		db:        db,
		jobs:      jobs,
		vehicles:  vehicles,
		shipments: shipments,
		depots:    depots,
		broker:    broker,
		solverCfg: solverCfg,
		depotCfg:  depotCfg,
		queueCfg:  queueCfg,
	}
}

// SubmitInput is the §4.1 submission contract.
type SubmitInput struct {
	PlanDate      time.Time
	VehicleIDs    []uuid.UUID
	ShipmentIDs   []uuid.UUID
	DepotOverride *uuid.UUID
	Parameters    domain.JobParameters
}

// applyDefaults fills zero-valued parameters from the configured defaults
// (§4.1's "closed set" of submission parameters).
func (o *Orchestrator) applyDefaults(p domain.JobParameters) domain.JobParameters {
	if p.TimeLimitSeconds == 0 {
		p.TimeLimitSeconds = o.solverCfg.DefaultTimeLimitSeconds
	}
	if p.Strategy == "" {
		p.Strategy = domain.StrategyMinimizeVehicles
	}
	if p.AmbientTemperature == 0 {
		p.AmbientTemperature = o.solverCfg.DefaultAmbientTemperature
	}
	if p.InitialVehicleTemp == 0 {
		p.InitialVehicleTemp = o.solverCfg.DefaultInitialVehicleTemp
	}
	if p.PlannedDepartureTime == "" {
		p.PlannedDepartureTime = "06:00"
	}
	return p
}

func validateParameters(p domain.JobParameters) error {
	var errs apperror.ValidationErrors
	if p.TimeLimitSeconds < 10 || p.TimeLimitSeconds > 3600 {
		errs.Add("time_limit_seconds", "must be within [10, 3600]")
	}
	if p.Strategy != domain.StrategyMinimizeVehicles && p.Strategy != domain.StrategyMinimizeDistance {
		errs.Add("strategy", "must be one of MINIMIZE_VEHICLES, MINIMIZE_DISTANCE")
	}
	if errs.HasErrors() {
		return apperror.New(apperror.CodeValidationError, "submission parameters invalid").
			WithDetails(map[string]any{"errors": errs.ErrorMessages()})
	}
	return nil
}

// Submit implements §4.1 submission semantics 1-5: fail-fast resource
// checks, job row creation, enqueue, immediate return of the job id.
func (o *Orchestrator) Submit(ctx context.Context, in SubmitInput) (*domain.OptimizationJob, error) {
	ctx, span := telemetry.StartSpan(ctx, "Orchestrator.Submit")
	defer span.End()

	params := o.applyDefaults(in.Parameters)
	if err := validateParameters(params); err != nil {
		return nil, err
	}

	vehicles, err := o.loadAvailableVehicles(ctx, in.VehicleIDs)
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, apperror.New(apperror.CodeNoResources, "no available vehicles match the submission filter")
	}

	shipments, err := o.shipments.ListPending(ctx, in.ShipmentIDs)
	if err != nil {
		return nil, fmt.Errorf("list pending shipments: %w", err)
	}
	if len(shipments) == 0 {
		return nil, apperror.New(apperror.CodeNoResources, "no pending shipments match the submission filter")
	}

	j := &domain.OptimizationJob{
		Status:           domain.JobPending,
		Progress:         0,
		PlanDate:         in.PlanDate,
		VehicleIDFilter:  in.VehicleIDs,
		ShipmentIDFilter: in.ShipmentIDs,
		DepotOverride:    in.DepotOverride,
		Parameters:       params,
		// BrokerTaskID is generated client-side: this queue has no
		// broker-native task id distinct from the job id, but the column
		// mirrors Celery's client-generated task.request.id in the system
		// this was modeled on.
		BrokerTaskID: uuid.NewString(),
	}

	if err := o.jobs.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := o.broker.Enqueue(ctx, j.ID); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	metrics.Get().RecordJobSubmitted()

	return j, nil
}

// loadAvailableVehicles loads vehicles matching ids (or every AVAILABLE
// vehicle when ids is empty), narrowed to AVAILABLE status either way.
func (o *Orchestrator) loadAvailableVehicles(ctx context.Context, ids []uuid.UUID) ([]*domain.Vehicle, error) {
	if len(ids) == 0 {
		return o.vehicles.List(ctx, repository.VehicleFilter{
			Status: repository.VehicleStatusFilter{Value: domain.VehicleAvailable, Set: true},
			Limit:  200,
		})
	}

	all, err := o.vehicles.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list vehicles by id: %w", err)
	}
	out := make([]*domain.Vehicle, 0, len(all))
	for _, v := range all {
		if v.Status == domain.VehicleAvailable {
			out = append(out, v)
		}
	}
	return out, nil
}

// Poll returns the job row verbatim (§4.1 "Polling returns the current row
// verbatim").
func (o *Orchestrator) Poll(ctx context.Context, id uuid.UUID) (*domain.OptimizationJob, error) {
	return o.jobs.GetByID(ctx, id)
}

// Cancel implements §4.1/§5.2 cancellation: permitted only while
// PENDING/RUNNING, resolved via a compare-and-swap against the status
// observed at read time so a terminal transition racing in from the worker
// always wins.
func (o *Orchestrator) Cancel(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "Orchestrator.Cancel")
	defer span.End()

	j, err := o.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !j.Cancellable() {
		return apperror.ErrJobNotTerminal
	}

	swapped, err := o.jobs.CompareAndSwapStatus(ctx, id, j.Status, domain.JobCancelled)
	if err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	if !swapped {
		// Lost the race: the worker already moved the row to a terminal
		// state between the read above and the swap.
		return apperror.ErrJobNotTerminal
	}

	if err := o.broker.Cancel(ctx, id); err != nil {
		logger.Error("failed to request broker-side task revocation", "job_id", id, "error", err)
	}
	_ = o.broker.ClearRetries(ctx, id)

	return nil
}
