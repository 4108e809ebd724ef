package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"logistics/internal/domain"
	"logistics/pkg/apperror"
	"logistics/pkg/database"
	"logistics/pkg/telemetry"
)

// PostgresJobRepository is the pgx-backed JobRepository.
type PostgresJobRepository struct {
	db database.DB
}

// NewPostgresJobRepository builds a PostgresJobRepository.
func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

const jobSelectQuery = `
	SELECT id, status, progress, plan_date, vehicle_id_filter, shipment_id_filter,
		depot_override, parameters, created_at, started_at, completed_at,
		route_ids, unassigned_shipment_ids, result_summary,
		error_message, error_traceback, broker_task_id
	FROM optimization_jobs
`

func (r *PostgresJobRepository) Create(ctx context.Context, j *domain.OptimizationJob) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresJobRepository.Create")
	defer span.End()

	params, err := encodeJSON(j.Parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}

	query := `
		INSERT INTO optimization_jobs (
			status, progress, plan_date, vehicle_id_filter, shipment_id_filter,
			depot_override, parameters, broker_task_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.db.QueryRow(ctx, query,
		j.Status, j.Progress, j.PlanDate, j.VehicleIDFilter, j.ShipmentIDFilter,
		j.DepotOverride, params, j.BrokerTaskID,
	).Scan(&j.ID, &j.CreatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	return nil
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OptimizationJob, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresJobRepository.GetByID")
	defer span.End()

	j, err := scanJob(r.db.QueryRow(ctx, jobSelectQuery+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}

	return j, nil
}

func (r *PostgresJobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresJobRepository.UpdateProgress")
	defer span.End()

	// §5.1: progress buckets must never decrease, so the write is a no-op
	// against a lower or equal value already stored.
	_, err := r.db.Exec(ctx, `
		UPDATE optimization_jobs SET progress = $2
		WHERE id = $1 AND progress < $2
	`, id, progress)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}

	return nil
}

func (r *PostgresJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresJobRepository.UpdateStatus")
	defer span.End()

	result, err := r.db.Exec(ctx, `UPDATE optimization_jobs SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.ErrJobNotFound
	}

	return nil
}

func (r *PostgresJobRepository) CompareAndSwapStatus(ctx context.Context, id uuid.UUID, from, to domain.JobStatus) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresJobRepository.CompareAndSwapStatus")
	defer span.End()

	result, err := r.db.Exec(ctx, `
		UPDATE optimization_jobs SET status = $3
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("compare-and-swap job status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *PostgresJobRepository) MarkRunning(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresJobRepository.MarkRunning")
	defer span.End()

	result, err := r.db.Exec(ctx, `
		UPDATE optimization_jobs SET status = $2, started_at = $3
		WHERE id = $1
	`, id, domain.JobRunning, startedAt)
	if err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.ErrJobNotFound
	}

	return nil
}

func (r *PostgresJobRepository) MarkCompleted(
	ctx context.Context,
	id uuid.UUID,
	completedAt time.Time,
	routeIDs, unassignedIDs []uuid.UUID,
	summary *domain.ResultSummary,
) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresJobRepository.MarkCompleted")
	defer span.End()

	summaryJSON, err := encodeJSON(summary)
	if err != nil {
		return fmt.Errorf("encode result summary: %w", err)
	}

	// Guarded on status = RUNNING: a cancellation that landed mid-solve has
	// already moved the row off RUNNING, and that write must win over a
	// solve that finishes after it (§5.2 cancellation race).
	result, err := r.db.Exec(ctx, `
		UPDATE optimization_jobs SET
			status = $2, progress = 100, completed_at = $3,
			route_ids = $4, unassigned_shipment_ids = $5, result_summary = $6
		WHERE id = $1 AND status = $7
	`, id, domain.JobCompleted, completedAt, routeIDs, unassignedIDs, summaryJSON, domain.JobRunning)
	if err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.markTerminalConflictErr(ctx, id)
	}

	return nil
}

func (r *PostgresJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, completedAt time.Time, errMsg, traceback string) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresJobRepository.MarkFailed")
	defer span.End()

	result, err := r.db.Exec(ctx, `
		UPDATE optimization_jobs SET
			status = $2, completed_at = $3, error_message = $4, error_traceback = $5
		WHERE id = $1 AND status = $6
	`, id, domain.JobFailed, completedAt, errMsg, traceback, domain.JobRunning)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.markTerminalConflictErr(ctx, id)
	}

	return nil
}

// markTerminalConflictErr distinguishes a row that never existed from one
// that moved off RUNNING before the guarded UPDATE landed.
func (r *PostgresJobRepository) markTerminalConflictErr(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return apperror.ErrJobNotRunning
}

func (r *PostgresJobRepository) List(ctx context.Context, limit, offset int) ([]*domain.OptimizationJob, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresJobRepository.List")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	rows, err := r.db.Query(ctx, jobSelectQuery+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*domain.OptimizationJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return out, nil
}

func scanJob(row rowScanner) (*domain.OptimizationJob, error) {
	j := &domain.OptimizationJob{}
	var params, summary []byte

	err := row.Scan(
		&j.ID, &j.Status, &j.Progress, &j.PlanDate, &j.VehicleIDFilter, &j.ShipmentIDFilter,
		&j.DepotOverride, &params, &j.CreatedAt, &j.StartedAt, &j.CompletedAt,
		&j.RouteIDs, &j.UnassignedShipmentIDs, &summary,
		&j.ErrorMessage, &j.ErrorTraceback, &j.BrokerTaskID,
	)
	if err != nil {
		return nil, err
	}

	if len(params) > 0 {
		if err := jsonUnmarshal(params, &j.Parameters); err != nil {
			return nil, fmt.Errorf("decode parameters: %w", err)
		}
	}
	if len(summary) > 0 {
		j.ResultSummary = &domain.ResultSummary{}
		if err := jsonUnmarshal(summary, j.ResultSummary); err != nil {
			return nil, fmt.Errorf("decode result summary: %w", err)
		}
	}

	return j, nil
}
