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
	"logistics/pkg/telemetry"
)

// PostgresRouteRepository is the pgx-backed RouteRepository. db may be a
// pool-backed database.DB or a pgx.Tx, letting the materializer run Create
// inside the same transaction as the shipment-status updates it commits
// alongside it.
type PostgresRouteRepository struct {
	db querier
}

// NewPostgresRouteRepository builds a PostgresRouteRepository.
func NewPostgresRouteRepository(db querier) *PostgresRouteRepository {
	return &PostgresRouteRepository{db: db}
}

const routeSelectQuery = `
	SELECT id, route_code, plan_date, vehicle_id, driver_id, status,
		total_stops, total_distance_km, total_duration_min, total_weight, total_volume,
		initial_temp, predicted_final_temp, predicted_max_temp,
		planned_departure, planned_return, depot_lat, depot_lon, depot_address,
		optimization_job_id, optimization_cost, created_at, updated_at
	FROM routes
`

const routeStopSelectQuery = `
	SELECT id, route_id, sequence_number, shipment_id, latitude, longitude, address,
		expected_arrival_at, expected_departure_at, target_time_window_index, slack_minutes,
		predicted_arrival_temp, transit_temp_rise, service_temp_rise, cooling_applied,
		predicted_departure_temp, is_temp_feasible, distance_from_prev_m, travel_time_from_prev_min,
		created_at, updated_at
	FROM route_stops
`

// Create persists a route and its stops as a single unit of work (§4.5.3):
// callers are expected to run it inside database.WithTransactionResult
// alongside the shipment-status updates the materializer also needs to
// commit atomically.
func (r *PostgresRouteRepository) Create(ctx context.Context, route *domain.Route, stops []domain.RouteStop) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRouteRepository.Create")
	defer span.End()

	query := `
		INSERT INTO routes (
			route_code, plan_date, vehicle_id, driver_id, status,
			total_stops, total_distance_km, total_duration_min, total_weight, total_volume,
			initial_temp, predicted_final_temp, predicted_max_temp,
			planned_departure, planned_return, depot_lat, depot_lon, depot_address,
			optimization_job_id, optimization_cost
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		route.RouteCode, route.PlanDate, route.VehicleID, route.DriverID, route.Status,
		route.TotalStops, route.TotalDistanceKM, route.TotalDurationMin, route.TotalWeight, route.TotalVolume,
		route.InitialTemp, route.PredictedFinalTemp, route.PredictedMaxTemp,
		route.PlannedDeparture, route.PlannedReturn, route.DepotLat, route.DepotLon, route.DepotAddress,
		route.OptimizationJobID, route.OptimizationCost,
	).Scan(&route.ID, &route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create route: %w", err)
	}

	for i := range stops {
		stops[i].RouteID = route.ID
		if err := r.insertStop(ctx, &stops[i]); err != nil {
			return fmt.Errorf("create route stop %d: %w", i, err)
		}
	}

	return nil
}

func (r *PostgresRouteRepository) insertStop(ctx context.Context, s *domain.RouteStop) error {
	query := `
		INSERT INTO route_stops (
			route_id, sequence_number, shipment_id, latitude, longitude, address,
			expected_arrival_at, expected_departure_at, target_time_window_index, slack_minutes,
			predicted_arrival_temp, transit_temp_rise, service_temp_rise, cooling_applied,
			predicted_departure_temp, is_temp_feasible, distance_from_prev_m, travel_time_from_prev_min
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRow(ctx, query,
		s.RouteID, s.SequenceNumber, s.ShipmentID, s.Latitude, s.Longitude, s.Address,
		s.ExpectedArrivalAt, s.ExpectedDepartureAt, s.TargetTimeWindowIndex, s.SlackMinutes,
		s.PredictedArrivalTemp, s.TransitTempRise, s.ServiceTempRise, s.CoolingApplied,
		s.PredictedDepartureTemp, s.IsTempFeasible, s.DistanceFromPrevM, s.TravelTimeFromPrevMin,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *PostgresRouteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRouteRepository.GetByID")
	defer span.End()

	route := &domain.Route{}
	err := r.db.QueryRow(ctx, routeSelectQuery+` WHERE id = $1`, id).Scan(
		&route.ID, &route.RouteCode, &route.PlanDate, &route.VehicleID, &route.DriverID, &route.Status,
		&route.TotalStops, &route.TotalDistanceKM, &route.TotalDurationMin, &route.TotalWeight, &route.TotalVolume,
		&route.InitialTemp, &route.PredictedFinalTemp, &route.PredictedMaxTemp,
		&route.PlannedDeparture, &route.PlannedReturn, &route.DepotLat, &route.DepotLon, &route.DepotAddress,
		&route.OptimizationJobID, &route.OptimizationCost, &route.CreatedAt, &route.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrRouteNotFound
		}
		return nil, fmt.Errorf("get route: %w", err)
	}

	return route, nil
}

func (r *PostgresRouteRepository) GetStops(ctx context.Context, routeID uuid.UUID) ([]domain.RouteStop, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRouteRepository.GetStops")
	defer span.End()

	rows, err := r.db.Query(ctx, routeStopSelectQuery+` WHERE route_id = $1 ORDER BY sequence_number`, routeID)
	if err != nil {
		return nil, fmt.Errorf("list route stops: %w", err)
	}
	defer rows.Close()

	var out []domain.RouteStop
	for rows.Next() {
		var s domain.RouteStop
		if err := rows.Scan(
			&s.ID, &s.RouteID, &s.SequenceNumber, &s.ShipmentID, &s.Latitude, &s.Longitude, &s.Address,
			&s.ExpectedArrivalAt, &s.ExpectedDepartureAt, &s.TargetTimeWindowIndex, &s.SlackMinutes,
			&s.PredictedArrivalTemp, &s.TransitTempRise, &s.ServiceTempRise, &s.CoolingApplied,
			&s.PredictedDepartureTemp, &s.IsTempFeasible, &s.DistanceFromPrevM, &s.TravelTimeFromPrevMin,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan route stop: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return out, nil
}

func (r *PostgresRouteRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RouteStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRouteRepository.UpdateStatus")
	defer span.End()

	result, err := r.db.Exec(ctx, `UPDATE routes SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update route status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.ErrRouteNotFound
	}

	return nil
}

// UpdateStopStatus records the actual arrival temperature a driver reported
// for a stop (§6 PATCH /routes/{id}/stops/{stop_id}); arrivalTemp may be
// nil when the caller only wants to touch the row's timestamp.
func (r *PostgresRouteRepository) UpdateStopStatus(ctx context.Context, stopID uuid.UUID, arrivalTemp *float64) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRouteRepository.UpdateStopStatus")
	defer span.End()

	query := `
		UPDATE route_stops SET
			predicted_arrival_temp = COALESCE($2, predicted_arrival_temp),
			updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, stopID, arrivalTemp)
	if err != nil {
		return fmt.Errorf("update route stop: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.ErrRouteStopNotFound
	}

	return nil
}

// DeleteAll removes every route; route_stops cascade via their FK.
func (r *PostgresRouteRepository) DeleteAll(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRouteRepository.DeleteAll")
	defer span.End()

	result, err := r.db.Exec(ctx, `DELETE FROM routes`)
	if err != nil {
		return 0, fmt.Errorf("delete all routes: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *PostgresRouteRepository) List(ctx context.Context, filter RouteFilter) ([]*domain.Route, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRouteRepository.List")
	defer span.End()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	query := routeSelectQuery + `
		WHERE ($1::date IS NULL OR plan_date = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::uuid IS NULL OR vehicle_id = $3)
		ORDER BY plan_date DESC, route_code
		LIMIT $4 OFFSET $5
	`

	var planDateArg *time.Time
	if filter.PlanDate != nil {
		planDateArg = filter.PlanDate
	}
	var statusArg *domain.RouteStatus
	if filter.Status.Set {
		statusArg = &filter.Status.Value
	}

	rows, err := r.db.Query(ctx, query, planDateArg, statusArg, filter.VehicleID, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	var out []*domain.Route
	for rows.Next() {
		route := &domain.Route{}
		if err := rows.Scan(
			&route.ID, &route.RouteCode, &route.PlanDate, &route.VehicleID, &route.DriverID, &route.Status,
			&route.TotalStops, &route.TotalDistanceKM, &route.TotalDurationMin, &route.TotalWeight, &route.TotalVolume,
			&route.InitialTemp, &route.PredictedFinalTemp, &route.PredictedMaxTemp,
			&route.PlannedDeparture, &route.PlannedReturn, &route.DepotLat, &route.DepotLon, &route.DepotAddress,
			&route.OptimizationJobID, &route.OptimizationCost, &route.CreatedAt, &route.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		out = append(out, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return out, nil
}
