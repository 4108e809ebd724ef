package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"logistics/internal/domain"
	"logistics/internal/repository"
)

type vehicleDTO struct {
	ID                uuid.UUID             `json:"id,omitempty"`
	LicensePlate      string                `json:"license_plate"`
	CapacityWeight    float64               `json:"capacity_weight"`
	CapacityVolume    float64               `json:"capacity_volume"`
	InsulationGrade   domain.InsulationGrade `json:"insulation_grade"`
	DoorType          domain.DoorType       `json:"door_type"`
	HasStripCurtains  bool                  `json:"has_strip_curtains"`
	CoolingRate       float64               `json:"cooling_rate"`
	MinTempCapability float64               `json:"min_temp_capability"`
	CurrentLat        *float64              `json:"current_lat,omitempty"`
	CurrentLon        *float64              `json:"current_lon,omitempty"`
	Status            domain.VehicleStatus  `json:"status,omitempty"`
}

func (d vehicleDTO) toDomain() *domain.Vehicle {
	return &domain.Vehicle{
		ID:                d.ID,
		LicensePlate:      d.LicensePlate,
		CapacityWeight:    d.CapacityWeight,
		CapacityVolume:    d.CapacityVolume,
		InsulationGrade:   d.InsulationGrade,
		DoorType:          d.DoorType,
		HasStripCurtains:  d.HasStripCurtains,
		CoolingRate:       d.CoolingRate,
		MinTempCapability: d.MinTempCapability,
		CurrentLat:        d.CurrentLat,
		CurrentLon:        d.CurrentLon,
		Status:            d.Status,
	}
}

func toVehicleDTO(v *domain.Vehicle) vehicleDTO {
	return vehicleDTO{
		ID:                v.ID,
		LicensePlate:      v.LicensePlate,
		CapacityWeight:    v.CapacityWeight,
		CapacityVolume:    v.CapacityVolume,
		InsulationGrade:   v.InsulationGrade,
		DoorType:          v.DoorType,
		HasStripCurtains:  v.HasStripCurtains,
		CoolingRate:       v.CoolingRate,
		MinTempCapability: v.MinTempCapability,
		CurrentLat:        v.CurrentLat,
		CurrentLon:        v.CurrentLon,
		Status:            v.Status,
	}
}

// HandleCreateVehicle implements POST /vehicles.
func (h *Handlers) HandleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var dto vehicleDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	v := dto.toDomain()
	if err := h.Vehicles.Create(r.Context(), v); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVehicleDTO(v))
}

// HandleGetVehicle implements GET /vehicles/{id}.
func (h *Handlers) HandleGetVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := h.Vehicles.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleDTO(v))
}

// HandleUpdateVehicle implements PUT /vehicles/{id}.
func (h *Handlers) HandleUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var dto vehicleDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	dto.ID = id
	v := dto.toDomain()
	if err := h.Vehicles.Update(r.Context(), v); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVehicleDTO(v))
}

// HandleDeleteVehicle implements DELETE /vehicles/{id}.
func (h *Handlers) HandleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Vehicles.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// HandleListVehicles implements GET /vehicles.
func (h *Handlers) HandleListVehicles(w http.ResponseWriter, r *http.Request) {
	filter := repository.VehicleFilter{Limit: 50}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Status = repository.VehicleStatusFilter{Value: domain.VehicleStatus(raw), Set: true}
	}

	vehicles, err := h.Vehicles.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]vehicleDTO, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, toVehicleDTO(v))
	}
	writeJSON(w, http.StatusOK, out)
}
