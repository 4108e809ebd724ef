package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"logistics/internal/domain"
	"logistics/internal/job"
	"logistics/internal/repository"
	"logistics/pkg/apperror"
)

type submitRequest struct {
	PlanDate      string              `json:"plan_date"`
	VehicleIDs    []uuid.UUID         `json:"vehicle_ids,omitempty"`
	ShipmentIDs   []uuid.UUID         `json:"shipment_ids,omitempty"`
	DepotID       *uuid.UUID          `json:"depot_id,omitempty"`
	Parameters    domain.JobParameters `json:"parameters"`
}

type jobResponse struct {
	JobID                 uuid.UUID              `json:"job_id"`
	Status                domain.JobStatus       `json:"status"`
	Progress              int                    `json:"progress"`
	PlanDate              string                 `json:"plan_date"`
	CreatedAt             time.Time              `json:"created_at"`
	StartedAt             *time.Time             `json:"started_at,omitempty"`
	CompletedAt           *time.Time             `json:"completed_at,omitempty"`
	RouteIDs              []uuid.UUID            `json:"route_ids,omitempty"`
	UnassignedShipmentIDs []uuid.UUID            `json:"unassigned_shipment_ids,omitempty"`
	ResultSummary         *domain.ResultSummary  `json:"result_summary,omitempty"`
	ErrorMessage          *string                `json:"error_message,omitempty"`
}

func toJobResponse(j *domain.OptimizationJob) jobResponse {
	return jobResponse{
		JobID:                 j.ID,
		Status:                j.Status,
		Progress:              j.Progress,
		PlanDate:              j.PlanDate.Format("2006-01-02"),
		CreatedAt:             j.CreatedAt,
		StartedAt:             j.StartedAt,
		CompletedAt:           j.CompletedAt,
		RouteIDs:              j.RouteIDs,
		UnassignedShipmentIDs: j.UnassignedShipmentIDs,
		ResultSummary:         j.ResultSummary,
		ErrorMessage:          j.ErrorMessage,
	}
}

// HandleSubmit implements POST /optimization.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	planDate, err := time.Parse("2006-01-02", req.PlanDate)
	if err != nil {
		writeError(w, apperror.NewWithField(apperror.CodeValidationError, "plan_date", "must be YYYY-MM-DD"))
		return
	}

	j, err := h.Orchestrator.Submit(r.Context(), job.SubmitInput{
		PlanDate:      planDate,
		VehicleIDs:    req.VehicleIDs,
		ShipmentIDs:   req.ShipmentIDs,
		DepotOverride: req.DepotID,
		Parameters:    req.Parameters,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, toJobResponse(j))
}

// HandleGetJob implements GET /optimization/{id}.
func (h *Handlers) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	j, err := h.Orchestrator.Poll(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(j))
}

// HandleCancelJob implements POST /optimization/{id}/cancel.
func (h *Handlers) HandleCancelJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Orchestrator.Cancel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	j, err := h.Orchestrator.Poll(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(j))
}

type temperatureViolation struct {
	RouteID    uuid.UUID `json:"route_id"`
	StopID     uuid.UUID `json:"stop_id"`
	ShipmentID uuid.UUID `json:"shipment_id"`
	ArrivalTemp float64  `json:"arrival_temp"`
}

type unassignedViolation struct {
	ShipmentID uuid.UUID              `json:"shipment_id"`
	Reason     domain.UnassignedReason `json:"reason"`
}

type violationsResponse struct {
	JobID                 uuid.UUID              `json:"job_id"`
	TemperatureViolations []temperatureViolation `json:"temperature_violations"`
	Unassigned            []unassignedViolation  `json:"unassigned"`
}

// HandleViolations implements GET /optimization/{id}/violations: temperature
// violations read directly off the job's materialized route stops, plus a
// best-guess reason for every shipment the solver left unassigned. The
// solver's own vrp.Unassigned{Reason} values aren't persisted per-shipment
// (only the bare id list is), so the reason is recomputed here from the
// shipment and vehicle fleet state at query time.
func (h *Handlers) HandleViolations(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	j, err := h.Orchestrator.Poll(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var tempViolations []temperatureViolation
	for _, routeID := range j.RouteIDs {
		stops, err := h.Routes.GetStops(r.Context(), routeID)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, s := range stops {
			if !s.IsTempFeasible {
				tempViolations = append(tempViolations, temperatureViolation{
					RouteID:     routeID,
					StopID:      s.ID,
					ShipmentID:  s.ShipmentID,
					ArrivalTemp: s.PredictedArrivalTemp,
				})
			}
		}
	}

	var unassigned []unassignedViolation
	if len(j.UnassignedShipmentIDs) > 0 {
		vehicles, err := h.vehicleFleetSnapshot(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		for _, shipmentID := range j.UnassignedShipmentIDs {
			s, err := h.Shipments.Get(r.Context(), shipmentID)
			if err != nil {
				unassigned = append(unassigned, unassignedViolation{ShipmentID: shipmentID, Reason: domain.ReasonUnknown})
				continue
			}
			unassigned = append(unassigned, unassignedViolation{
				ShipmentID: shipmentID,
				Reason:     classifyUnassigned(s, vehicles),
			})
		}
	}

	writeJSON(w, http.StatusOK, violationsResponse{
		JobID:                 j.ID,
		TemperatureViolations: tempViolations,
		Unassigned:            unassigned,
	})
}

func (h *Handlers) vehicleFleetSnapshot(ctx context.Context) ([]*domain.Vehicle, error) {
	return h.Vehicles.List(ctx, repository.VehicleFilter{Limit: 200})
}
