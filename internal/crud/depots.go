package crud

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"logistics/internal/domain"
	"logistics/internal/repository"
	"logistics/pkg/telemetry"
)

// DepotService is the thin CRUD boundary for depot locations.
type DepotService struct {
	repo repository.DepotRepository
}

// NewDepotService builds a DepotService.
func NewDepotService(repo repository.DepotRepository) *DepotService {
	return &DepotService{repo: repo}
}

// Create validates and persists d.
func (s *DepotService) Create(ctx context.Context, d *domain.Depot) error {
	ctx, span := telemetry.StartSpan(ctx, "crud.DepotService.Create")
	defer span.End()

	if err := d.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return fmt.Errorf("create depot: %w", err)
	}
	return nil
}

// Get returns the depot with id.
func (s *DepotService) Get(ctx context.Context, id uuid.UUID) (*domain.Depot, error) {
	return s.repo.GetByID(ctx, id)
}

// Update validates and persists d.
func (s *DepotService) Update(ctx context.Context, d *domain.Depot) error {
	ctx, span := telemetry.StartSpan(ctx, "crud.DepotService.Update")
	defer span.End()

	if err := d.Validate(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return fmt.Errorf("update depot: %w", err)
	}
	return nil
}

// Delete removes the depot with id.
func (s *DepotService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// List returns every depot.
func (s *DepotService) List(ctx context.Context) ([]*domain.Depot, error) {
	return s.repo.List(ctx)
}

// GetDefault returns the single active depot used when a job submission
// omits one.
func (s *DepotService) GetDefault(ctx context.Context) (*domain.Depot, error) {
	return s.repo.GetDefault(ctx)
}
