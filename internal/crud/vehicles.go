// Package crud provides the thin CRUD wrappers §6 lists for
// /vehicles, /shipments and /depots — deliberately minimal service-layer
// adapters over internal/repository, matching the teacher's own
// auth-svc-style "thin collaborator" services rather than a rich
// domain service.
package crud

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"logistics/internal/domain"
	"logistics/internal/repository"
	"logistics/pkg/telemetry"
)

// VehicleService is the thin CRUD boundary for fleet vehicles.
type VehicleService struct {
	repo repository.VehicleRepository
}

// NewVehicleService builds a VehicleService.
func NewVehicleService(repo repository.VehicleRepository) *VehicleService {
	return &VehicleService{repo: repo}
}

// Create validates, normalizes derived fields, and persists v.
func (s *VehicleService) Create(ctx context.Context, v *domain.Vehicle) error {
	ctx, span := telemetry.StartSpan(ctx, "crud.VehicleService.Create")
	defer span.End()

	v.Normalize()
	if err := v.Validate(); err != nil {
		return err
	}
	if v.Status == "" {
		v.Status = domain.VehicleAvailable
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return fmt.Errorf("create vehicle: %w", err)
	}
	return nil
}

// Get returns the vehicle with id.
func (s *VehicleService) Get(ctx context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	return s.repo.GetByID(ctx, id)
}

// Update validates, re-derives KValue/DoorCoefficient, and persists v.
func (s *VehicleService) Update(ctx context.Context, v *domain.Vehicle) error {
	ctx, span := telemetry.StartSpan(ctx, "crud.VehicleService.Update")
	defer span.End()

	v.Normalize()
	if err := v.Validate(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, v); err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	return nil
}

// Delete removes the vehicle with id.
func (s *VehicleService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// List returns vehicles matching filter.
func (s *VehicleService) List(ctx context.Context, filter repository.VehicleFilter) ([]*domain.Vehicle, error) {
	return s.repo.List(ctx, filter)
}
