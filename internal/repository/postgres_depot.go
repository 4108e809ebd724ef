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

// PostgresDepotRepository is the pgx-backed DepotRepository.
type PostgresDepotRepository struct {
	db database.DB
}

// NewPostgresDepotRepository builds a PostgresDepotRepository.
func NewPostgresDepotRepository(db database.DB) *PostgresDepotRepository {
	return &PostgresDepotRepository{db: db}
}

const depotSelectQuery = `
	SELECT id, latitude, longitude, address, active, created_at, updated_at
	FROM depots
`

func (r *PostgresDepotRepository) Create(ctx context.Context, d *domain.Depot) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresDepotRepository.Create")
	defer span.End()

	query := `
		INSERT INTO depots (latitude, longitude, address, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, d.Latitude, d.Longitude, d.Address, d.Active).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create depot: %w", err)
	}

	return nil
}

func (r *PostgresDepotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Depot, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresDepotRepository.GetByID")
	defer span.End()

	d := &domain.Depot{}
	err := r.db.QueryRow(ctx, depotSelectQuery+` WHERE id = $1`, id).
		Scan(&d.ID, &d.Latitude, &d.Longitude, &d.Address, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrDepotNotFound
		}
		return nil, fmt.Errorf("get depot: %w", err)
	}

	return d, nil
}

func (r *PostgresDepotRepository) Update(ctx context.Context, d *domain.Depot) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresDepotRepository.Update")
	defer span.End()

	query := `
		UPDATE depots SET latitude = $2, longitude = $3, address = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, d.ID, d.Latitude, d.Longitude, d.Address, d.Active).Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.ErrDepotNotFound
		}
		return fmt.Errorf("update depot: %w", err)
	}

	return nil
}

func (r *PostgresDepotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresDepotRepository.Delete")
	defer span.End()

	result, err := r.db.Exec(ctx, `DELETE FROM depots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete depot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.ErrDepotNotFound
	}

	return nil
}

func (r *PostgresDepotRepository) List(ctx context.Context) ([]*domain.Depot, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresDepotRepository.List")
	defer span.End()

	rows, err := r.db.Query(ctx, depotSelectQuery+` ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("list depots: %w", err)
	}
	defer rows.Close()

	var out []*domain.Depot
	for rows.Next() {
		d := &domain.Depot{}
		if err := rows.Scan(&d.ID, &d.Latitude, &d.Longitude, &d.Address, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan depot: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return out, nil
}

// GetDefault returns the single active depot used when a job submission
// doesn't override the depot (§4.1).
func (r *PostgresDepotRepository) GetDefault(ctx context.Context) (*domain.Depot, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresDepotRepository.GetDefault")
	defer span.End()

	d := &domain.Depot{}
	query := depotSelectQuery + ` WHERE active = true ORDER BY created_at LIMIT 1`
	err := r.db.QueryRow(ctx, query).
		Scan(&d.ID, &d.Latitude, &d.Longitude, &d.Address, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrDepotNotFound
		}
		return nil, fmt.Errorf("get default depot: %w", err)
	}

	return d, nil
}
