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

// PostgresUserRepository is the pgx-backed UserRepository.
type PostgresUserRepository struct {
	db database.DB
}

// NewPostgresUserRepository builds a PostgresUserRepository.
func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userSelectQuery = `
	SELECT id, username, password_hash, active, is_superuser, created_at, updated_at
	FROM users
`

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresUserRepository.GetByUsername")
	defer span.End()

	u := &domain.User{}
	err := r.db.QueryRow(ctx, userSelectQuery+` WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Active, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return u, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresUserRepository.GetByID")
	defer span.End()

	u := &domain.User{}
	err := r.db.QueryRow(ctx, userSelectQuery+` WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Active, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return u, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresUserRepository.Create")
	defer span.End()

	query := `
		INSERT INTO users (username, password_hash, active, is_superuser)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, u.Username, u.PasswordHash, u.Active, u.IsSuperuser).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}
