package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"logistics/internal/domain"
)

type depotDTO struct {
	ID        uuid.UUID `json:"id,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
}

func (d depotDTO) toDomain() *domain.Depot {
	return &domain.Depot{ID: d.ID, Latitude: d.Latitude, Longitude: d.Longitude, Address: d.Address, Active: d.Active}
}

func toDepotDTO(d *domain.Depot) depotDTO {
	return depotDTO{ID: d.ID, Latitude: d.Latitude, Longitude: d.Longitude, Address: d.Address, Active: d.Active}
}

// HandleCreateDepot implements POST /depots.
func (h *Handlers) HandleCreateDepot(w http.ResponseWriter, r *http.Request) {
	var dto depotDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	d := dto.toDomain()
	if err := h.Depots.Create(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDepotDTO(d))
}

// HandleGetDepot implements GET /depots/{id}.
func (h *Handlers) HandleGetDepot(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := h.Depots.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDepotDTO(d))
}

// HandleUpdateDepot implements PUT /depots/{id}.
func (h *Handlers) HandleUpdateDepot(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var dto depotDTO
	if err := decodeJSON(r, &dto); err != nil {
		writeError(w, err)
		return
	}
	dto.ID = id
	d := dto.toDomain()
	if err := h.Depots.Update(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDepotDTO(d))
}

// HandleDeleteDepot implements DELETE /depots/{id}.
func (h *Handlers) HandleDeleteDepot(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Depots.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// HandleListDepots implements GET /depots.
func (h *Handlers) HandleListDepots(w http.ResponseWriter, r *http.Request) {
	depots, err := h.Depots.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]depotDTO, 0, len(depots))
	for _, d := range depots {
		out = append(out, toDepotDTO(d))
	}
	writeJSON(w, http.StatusOK, out)
}
