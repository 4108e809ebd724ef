// Package materializer turns a solved vrp.Solution into persisted Route and
// RouteStop rows, flips the shipments it assigned to ASSIGNED, and reports a
// domain.ResultSummary — the §4.5 "result extraction" stage of the job
// lifecycle. Grounded on original_source/app/services/tasks.py's
// _save_routes/_update_shipment_statuses (route-code format, per-stop field
// mapping) and run inside a single pgx transaction so a route's rows and
// its shipments' status flips commit atomically (§4.5.3).
package materializer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"logistics/internal/domain"
	"logistics/internal/repository"
	"logistics/internal/thermo"
	"logistics/internal/vrp"
	"logistics/pkg/database"
)

// ErrJobNoLongerRunning is returned when in.JobID's status has moved off
// RUNNING (a cancellation raced in) between solve start and commit.
// Materialize rolls back rather than persist routes for a job whose
// cancellation has already been accepted (§5.2, §8 "no partial routes
// persisted").
var ErrJobNoLongerRunning = errors.New("materializer: job is no longer running")

// Input bundles everything Materialize needs besides the Solution itself.
type Input struct {
	JobID     uuid.UUID
	PlanDate  time.Time
	Depot     domain.Depot
	Vehicles  []domain.Vehicle // same order passed to vrp.Build
	Shipments []domain.Shipment // same order passed to vrp.Build
	Model     *vrp.Model
}

// Result is what the orchestrator persists onto the OptimizationJob.
type Result struct {
	RouteIDs     []uuid.UUID
	UnassignedIDs []uuid.UUID
	Summary      *domain.ResultSummary
}

// Materialize persists sol's routes and stops, reassigns shipment status,
// and returns the job-level summary. db must be the pool-backed handle;
// Materialize opens its own transaction.
func Materialize(ctx context.Context, db database.DB, in Input, sol *vrp.Solution, solveTime time.Duration) (*Result, error) {
	return database.WithTransactionResult(ctx, db, func(tx pgx.Tx) (*Result, error) {
		jobRepo := repository.NewPostgresJobRepository(tx)
		routeRepo := repository.NewPostgresRouteRepository(tx)
		shipmentRepo := repository.NewPostgresShipmentRepository(tx)

		// No-op CAS guard: fails the whole transaction if a cancellation
		// already moved in.JobID off RUNNING while solve() was computing sol.
		stillRunning, err := jobRepo.CompareAndSwapStatus(ctx, in.JobID, domain.JobRunning, domain.JobRunning)
		if err != nil {
			return nil, fmt.Errorf("recheck job status: %w", err)
		}
		if !stillRunning {
			return nil, ErrJobNoLongerRunning
		}

		routeIDs := make([]uuid.UUID, 0, len(sol.Routes))
		assigned := 0
		jobSuffix := shortID(in.JobID)

		for _, rs := range sol.Routes {
			if len(rs.NodeIndices) == 0 {
				continue // empty tours materialize nothing (open question decision)
			}

			vehicle := &in.Vehicles[rs.VehicleIndex]
			spec := &in.Model.Vehicles[rs.VehicleIndex]
			route, stops := buildRoute(in, rs, vehicle, spec, jobSuffix)

			if err := routeRepo.Create(ctx, route, stops); err != nil {
				return nil, fmt.Errorf("materialize route: %w", err)
			}
			routeIDs = append(routeIDs, route.ID)

			for i, nodeIdx := range rs.NodeIndices {
				shipmentID := in.Model.Nodes[nodeIdx].ShipmentID
				shipment := findShipment(in.Shipments, shipmentID)
				if shipment == nil {
					continue
				}
				shipment.Status = domain.ShipmentAssigned
				shipment.RouteID = &route.ID
				seq := i + 1
				shipment.RouteSequence = &seq
				if err := shipmentRepo.Update(ctx, shipment); err != nil {
					return nil, fmt.Errorf("assign shipment %s: %w", shipmentID, err)
				}
				assigned++
			}
		}

		unassignedIDs := make([]uuid.UUID, 0, len(sol.Unassigned))
		for _, u := range sol.Unassigned {
			unassignedIDs = append(unassignedIDs, u.ShipmentID)
		}

		summary := &domain.ResultSummary{
			RoutesCreated:        len(routeIDs),
			ShipmentsAssigned:    assigned,
			ShipmentsUnassigned:  len(unassignedIDs),
			TotalDistanceKM:      float64(sol.TotalDistanceMeters(in.Model)) / 1000,
			TotalDurationMinutes: totalDurationMinutes(sol, in.Model),
			TotalCost:            sol.ObjectiveValue,
			SolverStatus:         string(sol.Status),
			SolverTimeSeconds:    solveTime.Seconds(),
		}

		return &Result{RouteIDs: routeIDs, UnassignedIDs: unassignedIDs, Summary: summary}, nil
	})
}

func buildRoute(in Input, rs vrp.RouteSolution, vehicle *domain.Vehicle, spec *vrp.VehicleSpec, jobSuffix string) (*domain.Route, []domain.RouteStop) {
	m := in.Model
	midnight := time.Date(in.PlanDate.Year(), in.PlanDate.Month(), in.PlanDate.Day(), 0, 0, 0, 0, in.PlanDate.Location())

	stopInputs := make([]thermo.StopInput, len(rs.NodeIndices))
	prev := 0
	for i, nodeIdx := range rs.NodeIndices {
		node := &m.Nodes[nodeIdx]
		travelMin := m.TimeMinutes[prev][nodeIdx]
		stopInputs[i] = thermo.StopInput{
			TravelTimeHours: float64(travelMin) / 60,
			ServiceTimeHours: float64(node.ServiceMinutes) / 60,
			TempLimitUpper:   node.TempLimitUpper,
			TempLimitLower:   node.TempLimitLower,
			IsStrictSLA:      node.IsStrictSLA,
		}
		prev = nodeIdx
	}

	thermoResults := thermo.Propagate(spec.Thermo, m.AmbientTemperature, spec.InitialTemp, stopInputs)

	totalWeight, totalVolume := 0, 0
	stops := make([]domain.RouteStop, len(rs.NodeIndices))
	distanceMeters := 0
	prev = 0
	for i, nodeIdx := range rs.NodeIndices {
		node := &m.Nodes[nodeIdx]
		dist := m.DistanceMeters[prev][nodeIdx]
		distanceMeters += dist
		travelMin := m.TimeMinutes[prev][nodeIdx]

		arrivalMin := rs.ArrivalMinutes[i]
		departureMin := arrivalMin + node.ServiceMinutes

		totalWeight += node.DemandWeightG
		totalVolume += node.DemandVolumeL

		tr := thermoResults[i]
		stops[i] = domain.RouteStop{
			ShipmentID:             node.ShipmentID,
			SequenceNumber:         i + 1,
			ExpectedArrivalAt:      midnight.Add(time.Duration(arrivalMin) * time.Minute),
			ExpectedDepartureAt:    midnight.Add(time.Duration(departureMin) * time.Minute),
			TargetTimeWindowIndex:  targetWindowIndex(node, arrivalMin),
			SlackMinutes:           slackMinutes(node, arrivalMin),
			PredictedArrivalTemp:   tr.ArrivalTemp,
			TransitTempRise:        tr.TransitRise,
			ServiceTempRise:        tr.DoorRise,
			CoolingApplied:         tr.CoolingApplied,
			PredictedDepartureTemp: tr.DepartureTemp,
			IsTempFeasible:         tr.IsTempFeasible,
			DistanceFromPrevM:      float64(dist),
			TravelTimeFromPrevMin:  float64(travelMin),
		}

		shipment := findShipment(in.Shipments, node.ShipmentID)
		if shipment != nil {
			stops[i].Latitude = shipment.Latitude
			stops[i].Longitude = shipment.Longitude
		}

		prev = nodeIdx
	}
	distanceMeters += m.DistanceMeters[prev][0]

	returnTravelMin := 0
	if len(rs.NodeIndices) > 0 {
		returnTravelMin = m.TimeMinutes[prev][0]
	}
	lastDeparture := m.EarliestDepartureMinutes
	if len(rs.NodeIndices) > 0 {
		lastNode := &m.Nodes[rs.NodeIndices[len(rs.NodeIndices)-1]]
		lastDeparture = rs.ArrivalMinutes[len(rs.ArrivalMinutes)-1] + lastNode.ServiceMinutes
	}
	returnMin := lastDeparture + returnTravelMin

	finalTemp := spec.InitialTemp
	maxTemp := spec.InitialTemp
	if len(thermoResults) > 0 {
		finalTemp = thermoResults[len(thermoResults)-1].DepartureTemp
		maxTemp = thermo.MaxArrivalTemp(thermoResults)
	}

	route := &domain.Route{
		RouteCode:          fmt.Sprintf("R-%s-%s-%s", in.PlanDate.Format("20060102"), vehicle.LicensePlate, jobSuffix),
		PlanDate:           in.PlanDate,
		VehicleID:          vehicle.ID,
		Status:             domain.RouteScheduled,
		TotalStops:         len(rs.NodeIndices),
		TotalDistanceKM:    float64(distanceMeters) / 1000,
		TotalDurationMin:   float64(returnMin - m.EarliestDepartureMinutes),
		TotalWeight:        float64(totalWeight) / 1000,
		TotalVolume:        float64(totalVolume) / 1000,
		InitialTemp:        spec.InitialTemp,
		PredictedFinalTemp: finalTemp,
		PredictedMaxTemp:   maxTemp,
		PlannedDeparture:   midnight.Add(time.Duration(m.EarliestDepartureMinutes) * time.Minute),
		PlannedReturn:      midnight.Add(time.Duration(returnMin) * time.Minute),
		DepotLat:           in.Depot.Latitude,
		DepotLon:           in.Depot.Longitude,
		DepotAddress:       in.Depot.Address,
		OptimizationJobID:  in.JobID,
		OptimizationCost:   0,
	}

	return route, stops
}

func targetWindowIndex(node *vrp.Node, arrivalMin int) int {
	for i, w := range node.Windows {
		if w.Contains(arrivalMin) {
			return i
		}
	}
	return 0
}

func slackMinutes(node *vrp.Node, arrivalMin int) int {
	if node.WindowEndMin < arrivalMin {
		return 0
	}
	return node.WindowEndMin - arrivalMin
}

func findShipment(shipments []domain.Shipment, id uuid.UUID) *domain.Shipment {
	for i := range shipments {
		if shipments[i].ID == id {
			return &shipments[i]
		}
	}
	return nil
}

func totalDurationMinutes(sol *vrp.Solution, m *vrp.Model) float64 {
	total := 0.0
	for _, r := range sol.Routes {
		if len(r.NodeIndices) == 0 {
			continue
		}
		last := &m.Nodes[r.NodeIndices[len(r.NodeIndices)-1]]
		departure := r.ArrivalMinutes[len(r.ArrivalMinutes)-1] + last.ServiceMinutes
		returnTravel := m.TimeMinutes[r.NodeIndices[len(r.NodeIndices)-1]][0]
		total += float64(departure + returnTravel - m.EarliestDepartureMinutes)
	}
	return total
}

func shortID(id uuid.UUID) string {
	s := id.String()
	if len(s) <= 8 {
		return s
	}
	return s[len(s)-8:]
}
