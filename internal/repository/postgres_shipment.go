package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"logistics/internal/domain"
	"logistics/pkg/apperror"
	"logistics/pkg/telemetry"
)

// PostgresShipmentRepository is the pgx-backed ShipmentRepository. db may be
// a pool-backed database.DB or a pgx.Tx (see querier).
type PostgresShipmentRepository struct {
	db querier
}

// NewPostgresShipmentRepository builds a PostgresShipmentRepository.
func NewPostgresShipmentRepository(db querier) *PostgresShipmentRepository {
	return &PostgresShipmentRepository{db: db}
}

func (r *PostgresShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresShipmentRepository.Create")
	defer span.End()

	windows, err := encodeWindows(s.TimeWindows)
	if err != nil {
		return fmt.Errorf("encode time windows: %w", err)
	}

	query := `
		INSERT INTO shipments (
			order_number, latitude, longitude, time_windows, sla_tier,
			temp_limit_upper, temp_limit_lower, service_duration_minutes,
			weight, volume, priority, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		s.OrderNumber, s.Latitude, s.Longitude, windows, s.SLATier,
		s.TempLimitUpper, s.TempLimitLower, s.ServiceDurationMinutes,
		s.Weight, s.Volume, s.Priority, s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create shipment: %w", err)
	}

	return nil
}

func (r *PostgresShipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresShipmentRepository.GetByID")
	defer span.End()

	row := r.db.QueryRow(ctx, shipmentSelectQuery+` WHERE id = $1`, id)
	s, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return s, nil
}

func (r *PostgresShipmentRepository) Update(ctx context.Context, s *domain.Shipment) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresShipmentRepository.Update")
	defer span.End()

	windows, err := encodeWindows(s.TimeWindows)
	if err != nil {
		return fmt.Errorf("encode time windows: %w", err)
	}

	query := `
		UPDATE shipments SET
			order_number = $2, latitude = $3, longitude = $4, time_windows = $5,
			sla_tier = $6, temp_limit_upper = $7, temp_limit_lower = $8,
			service_duration_minutes = $9, weight = $10, volume = $11,
			priority = $12, status = $13, route_id = $14, route_sequence = $15,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err = r.db.QueryRow(ctx, query,
		s.ID, s.OrderNumber, s.Latitude, s.Longitude, windows,
		s.SLATier, s.TempLimitUpper, s.TempLimitLower,
		s.ServiceDurationMinutes, s.Weight, s.Volume,
		s.Priority, s.Status, s.RouteID, s.RouteSequence,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.ErrShipmentNotFound
		}
		return fmt.Errorf("update shipment: %w", err)
	}

	return nil
}

func (r *PostgresShipmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresShipmentRepository.Delete")
	defer span.End()

	result, err := r.db.Exec(ctx, `DELETE FROM shipments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.ErrShipmentNotFound
	}

	return nil
}

func (r *PostgresShipmentRepository) List(ctx context.Context, filter ShipmentFilter) ([]*domain.Shipment, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresShipmentRepository.List")
	defer span.End()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	query := shipmentSelectQuery + `
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR sla_tier = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	var statusArg *domain.ShipmentStatus
	if filter.Status.Set {
		statusArg = &filter.Status.Value
	}
	var slaArg *domain.SLATier
	if filter.SLATier.Set {
		slaArg = &filter.SLATier.Value
	}

	rows, err := r.db.Query(ctx, query, statusArg, slaArg, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()

	return scanShipments(rows)
}

func (r *PostgresShipmentRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresShipmentRepository.ListByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, shipmentSelectQuery+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list shipments by ids: %w", err)
	}
	defer rows.Close()

	return scanShipments(rows)
}

// ListPending returns PENDING shipments, optionally narrowed to ids (§4.1
// submission filter).
func (r *PostgresShipmentRepository) ListPending(ctx context.Context, ids []uuid.UUID) ([]*domain.Shipment, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresShipmentRepository.ListPending")
	defer span.End()

	query := shipmentSelectQuery + `
		WHERE status = $1 AND ($2::uuid[] IS NULL OR id = ANY($2))
	`

	var idsArg []uuid.UUID
	if len(ids) > 0 {
		idsArg = ids
	}

	rows, err := r.db.Query(ctx, query, domain.ShipmentPending, idsArg)
	if err != nil {
		return nil, fmt.Errorf("list pending shipments: %w", err)
	}
	defer rows.Close()

	return scanShipments(rows)
}

// ResetAssignments clears route assignment and returns affected shipments
// to PENDING (§6 POST /shipments/reset). A nil/empty ids resets every
// shipment, matching the endpoint's "reset everything" semantics.
func (r *PostgresShipmentRepository) ResetAssignments(ctx context.Context, ids []uuid.UUID) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresShipmentRepository.ResetAssignments")
	defer span.End()

	var idsArg []uuid.UUID
	if len(ids) > 0 {
		idsArg = ids
	}

	query := `
		UPDATE shipments
		SET status = $1, route_id = NULL, route_sequence = NULL, updated_at = now()
		WHERE $2::uuid[] IS NULL OR id = ANY($2)
	`

	result, err := r.db.Exec(ctx, query, domain.ShipmentPending, idsArg)
	if err != nil {
		return 0, fmt.Errorf("reset shipment assignments: %w", err)
	}

	return result.RowsAffected(), nil
}

const shipmentSelectQuery = `
	SELECT id, order_number, latitude, longitude, time_windows, sla_tier,
		temp_limit_upper, temp_limit_lower, service_duration_minutes,
		weight, volume, priority, status, route_id, route_sequence,
		created_at, updated_at
	FROM shipments
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*domain.Shipment, error) {
	s := &domain.Shipment{}
	var windows []byte
	err := row.Scan(
		&s.ID, &s.OrderNumber, &s.Latitude, &s.Longitude, &windows, &s.SLATier,
		&s.TempLimitUpper, &s.TempLimitLower, &s.ServiceDurationMinutes,
		&s.Weight, &s.Volume, &s.Priority, &s.Status, &s.RouteID, &s.RouteSequence,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.TimeWindows, err = decodeWindows(windows)
	if err != nil {
		return nil, fmt.Errorf("decode time windows: %w", err)
	}
	return s, nil
}

func scanShipments(rows pgx.Rows) ([]*domain.Shipment, error) {
	var out []*domain.Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
