package crud

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"logistics/internal/domain"
	"logistics/internal/repository"
	"logistics/pkg/telemetry"
)

// ShipmentService is the thin CRUD boundary for delivery orders, plus the
// §6 POST /shipments/reset bulk operation.
type ShipmentService struct {
	shipments repository.ShipmentRepository
	routes    repository.RouteRepository
}

// NewShipmentService builds a ShipmentService.
func NewShipmentService(shipments repository.ShipmentRepository, routes repository.RouteRepository) *ShipmentService {
	return &ShipmentService{shipments: shipments, routes: routes}
}

// Create validates and persists s.
func (svc *ShipmentService) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, span := telemetry.StartSpan(ctx, "crud.ShipmentService.Create")
	defer span.End()

	if err := s.Validate(); err != nil {
		return err
	}
	if s.Status == "" {
		s.Status = domain.ShipmentPending
	}
	if err := svc.shipments.Create(ctx, s); err != nil {
		return fmt.Errorf("create shipment: %w", err)
	}
	return nil
}

// Get returns the shipment with id.
func (svc *ShipmentService) Get(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	return svc.shipments.GetByID(ctx, id)
}

// Update validates and persists s.
func (svc *ShipmentService) Update(ctx context.Context, s *domain.Shipment) error {
	ctx, span := telemetry.StartSpan(ctx, "crud.ShipmentService.Update")
	defer span.End()

	if err := s.Validate(); err != nil {
		return err
	}
	if err := svc.shipments.Update(ctx, s); err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}
	return nil
}

// Delete removes the shipment with id.
func (svc *ShipmentService) Delete(ctx context.Context, id uuid.UUID) error {
	return svc.shipments.Delete(ctx, id)
}

// List returns shipments matching filter.
func (svc *ShipmentService) List(ctx context.Context, filter repository.ShipmentFilter) ([]*domain.Shipment, error) {
	return svc.shipments.List(ctx, filter)
}

// ResetResult reports the §6 POST /shipments/reset outcome.
type ResetResult struct {
	ShipmentsReset int64
	RoutesDeleted  int64
}

// Reset implements §6 POST /shipments/reset: deletes every route (and, by
// cascade, every route_stop) and returns every shipment to PENDING with its
// route back-refs cleared. Routes are deleted first so the shipments update
// below is the one that actually clears the FK reset that the reset is
// observed through.
func (svc *ShipmentService) Reset(ctx context.Context) (*ResetResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "crud.ShipmentService.Reset")
	defer span.End()

	routesDeleted, err := svc.routes.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete routes: %w", err)
	}

	shipmentsReset, err := svc.shipments.ResetAssignments(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("reset shipment assignments: %w", err)
	}

	return &ResetResult{ShipmentsReset: shipmentsReset, RoutesDeleted: routesDeleted}, nil
}
