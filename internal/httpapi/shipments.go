package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"logistics/internal/domain"
	"logistics/internal/repository"
)

type shipmentDTO struct {
	ID                     uuid.UUID           `json:"id,omitempty"`
	OrderNumber            string              `json:"order_number"`
	Latitude               float64             `json:"latitude"`
	Longitude              float64             `json:"longitude"`
	TimeWindows            []domain.TimeWindow `json:"time_windows"`
	SLATier                domain.SLATier      `json:"sla_tier"`
	TempLimitUpper         float64             `json:"temp_limit_upper"`
	TempLimitLower         *float64            `json:"temp_limit_lower,omitempty"`
	ServiceDurationMinutes int                 `json:"service_duration_minutes"`
	Weight                 float64             `json:"weight"`
	Volume                 *float64            `json:"volume,omitempty"`
	Priority               int                 `json:"priority"`
	Status                 domain.ShipmentStatus `json:"status,omitempty"`
	RouteID                *uuid.UUID          `json:"route_id,omitempty"`
	RouteSequence          *int                `json:"route_sequence,omitempty"`
}

func (d shipmentDTO) toDomain() *domain.Shipment {
	return &domain.Shipment{
		ID:                     d.ID,
		OrderNumber:            d.OrderNumber,
		Latitude:               d.Latitude,
		Longitude:              d.Longitude,
		TimeWindows:            d.TimeWindows,
		SLATier:                d.SLATier,
		TempLimitUpper:         d.TempLimitUpper,
		TempLimitLower:         d.TempLimitLower,
		ServiceDurationMinutes: d.ServiceDurationMinutes,
		Weight:                 d.Weight,
		Volume:                 d.Volume,
		Priority:               d.Priority,
		Status:                 d.Status,
		RouteID:                d.RouteID,
		RouteSequence:          d.RouteSequence,
	}
}

func toShipmentDTO(s *domain.Shipment) shipmentDTO {
	return shipmentDTO{
		ID:                     s.ID,
		OrderNumber:            s.OrderNumber,
		Latitude:               s.Latitude,
		Longitude:              s.Longitude,
		TimeWindows:            s.TimeWindows,
		SLATier:                s.SLATier,
		TempLimitUpper:         s.TempLimitUpper,
		TempLimitLower:         s.TempLimitLower,
		ServiceDurationMinutes: s.ServiceDurationMinutes,
		Weight:                 s.Weight,
		Volume:                 s.Volume,
		Priority:               s.Priority,
		Status:                 s.Status,
		RouteID:                s.RouteID,
		RouteSequence:          s.RouteSequence,
	}
}

// HandleCreateShipment implements POST /shipments.
func (h *Handlers) HandleCreateShipment(w http.ResponseWriter, r *http.Request) {
	var dto shipmentDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	s := dto.toDomain()
	if err := h.Shipments.Create(r.Context(), s); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShipmentDTO(s))
}

// HandleGetShipment implements GET /shipments/{id}.
func (h *Handlers) HandleGetShipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := h.Shipments.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShipmentDTO(s))
}

// HandleUpdateShipment implements PUT /shipments/{id}.
func (h *Handlers) HandleUpdateShipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var dto shipmentDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	dto.ID = id
	s := dto.toDomain()
	if err := h.Shipments.Update(r.Context(), s); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShipmentDTO(s))
}

// HandleDeleteShipment implements DELETE /shipments/{id}.
func (h *Handlers) HandleDeleteShipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Shipments.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// HandleListShipments implements GET /shipments.
func (h *Handlers) HandleListShipments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ShipmentFilter{Limit: 50}
	if raw := q.Get("status"); raw != "" {
		filter.Status = repository.ShipmentStatusFilter{Value: domain.ShipmentStatus(raw), Set: true}
	}
	if raw := q.Get("sla_tier"); raw != "" {
		filter.SLATier = repository.SLATierFilter{Value: domain.SLATier(raw), Set: true}
	}

	shipments, err := h.Shipments.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]shipmentDTO, 0, len(shipments))
	for _, s := range shipments {
		out = append(out, toShipmentDTO(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleResetShipments implements POST /shipments/reset.
func (h *Handlers) HandleResetShipments(w http.ResponseWriter, r *http.Request) {
	result, err := h.Shipments.Reset(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ShipmentsReset int64 `json:"shipments_reset"`
		RoutesDeleted  int64 `json:"routes_deleted"`
	}{result.ShipmentsReset, result.RoutesDeleted})
}
