package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"logistics/internal/domain"
	"logistics/pkg/apperror"
	"logistics/pkg/database"
	"logistics/pkg/telemetry"
)

// PostgresVehicleRepository is the pgx-backed VehicleRepository.
type PostgresVehicleRepository struct {
	db database.DB
}

// NewPostgresVehicleRepository builds a PostgresVehicleRepository.
func NewPostgresVehicleRepository(db database.DB) *PostgresVehicleRepository {
	return &PostgresVehicleRepository{db: db}
}

func (r *PostgresVehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresVehicleRepository.Create")
	defer span.End()

	v.Normalize()

	query := `
		INSERT INTO vehicles (
			license_plate, capacity_weight, capacity_volume,
			insulation_grade, door_type, has_strip_curtains, cooling_rate,
			min_temp_capability, k_value, door_coefficient,
			current_lat, current_lon, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		v.LicensePlate, v.CapacityWeight, v.CapacityVolume,
		v.InsulationGrade, v.DoorType, v.HasStripCurtains, v.CoolingRate,
		v.MinTempCapability, v.KValue, v.DoorCoefficient,
		v.CurrentLat, v.CurrentLon, v.Status,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create vehicle: %w", err)
	}

	return nil
}

func (r *PostgresVehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresVehicleRepository.GetByID")
	defer span.End()

	query := `
		SELECT id, license_plate, capacity_weight, capacity_volume,
			insulation_grade, door_type, has_strip_curtains, cooling_rate,
			min_temp_capability, k_value, door_coefficient,
			current_lat, current_lon, status, created_at, updated_at
		FROM vehicles WHERE id = $1
	`

	v := &domain.Vehicle{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.LicensePlate, &v.CapacityWeight, &v.CapacityVolume,
		&v.InsulationGrade, &v.DoorType, &v.HasStripCurtains, &v.CoolingRate,
		&v.MinTempCapability, &v.KValue, &v.DoorCoefficient,
		&v.CurrentLat, &v.CurrentLon, &v.Status, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("get vehicle: %w", err)
	}

	return v, nil
}

func (r *PostgresVehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresVehicleRepository.Update")
	defer span.End()

	v.Normalize()

	query := `
		UPDATE vehicles SET
			license_plate = $2, capacity_weight = $3, capacity_volume = $4,
			insulation_grade = $5, door_type = $6, has_strip_curtains = $7,
			cooling_rate = $8, min_temp_capability = $9, k_value = $10,
			door_coefficient = $11, current_lat = $12, current_lon = $13,
			status = $14, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		v.ID, v.LicensePlate, v.CapacityWeight, v.CapacityVolume,
		v.InsulationGrade, v.DoorType, v.HasStripCurtains,
		v.CoolingRate, v.MinTempCapability, v.KValue,
		v.DoorCoefficient, v.CurrentLat, v.CurrentLon,
		v.Status,
	).Scan(&v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.ErrVehicleNotFound
		}
		return fmt.Errorf("update vehicle: %w", err)
	}

	return nil
}

func (r *PostgresVehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresVehicleRepository.Delete")
	defer span.End()

	result, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.ErrVehicleNotFound
	}

	return nil
}

func (r *PostgresVehicleRepository) List(ctx context.Context, filter VehicleFilter) ([]*domain.Vehicle, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresVehicleRepository.List")
	defer span.End()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	query := `
		SELECT id, license_plate, capacity_weight, capacity_volume,
			insulation_grade, door_type, has_strip_curtains, cooling_rate,
			min_temp_capability, k_value, door_coefficient,
			current_lat, current_lon, status, created_at, updated_at
		FROM vehicles
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY license_plate
		LIMIT $2 OFFSET $3
	`

	var statusArg *domain.VehicleStatus
	if filter.Status.Set {
		statusArg = &filter.Status.Value
	}

	rows, err := r.db.Query(ctx, query, statusArg, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	return scanVehicles(rows)
}

func (r *PostgresVehicleRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Vehicle, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresVehicleRepository.ListByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, license_plate, capacity_weight, capacity_volume,
			insulation_grade, door_type, has_strip_curtains, cooling_rate,
			min_temp_capability, k_value, door_coefficient,
			current_lat, current_lon, status, created_at, updated_at
		FROM vehicles WHERE id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list vehicles by ids: %w", err)
	}
	defer rows.Close()

	return scanVehicles(rows)
}

func scanVehicles(rows pgx.Rows) ([]*domain.Vehicle, error) {
	var out []*domain.Vehicle
	for rows.Next() {
		v := &domain.Vehicle{}
		if err := rows.Scan(
			&v.ID, &v.LicensePlate, &v.CapacityWeight, &v.CapacityVolume,
			&v.InsulationGrade, &v.DoorType, &v.HasStripCurtains, &v.CoolingRate,
			&v.MinTempCapability, &v.KValue, &v.DoorCoefficient,
			&v.CurrentLat, &v.CurrentLon, &v.Status, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
