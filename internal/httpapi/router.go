package httpapi

import "net/http"

// PublicPaths returns the §6 routes that don't require a bearer token.
func PublicPaths() map[string]bool {
	return map[string]bool{
		"/api/v1/auth/token": true,
	}
}

// Register mounts every §6 route onto mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	const base = "/api/v1"

	mux.HandleFunc("POST "+base+"/auth/token", h.HandleToken)

	mux.HandleFunc("POST "+base+"/optimization", h.HandleSubmit)
	mux.HandleFunc("GET "+base+"/optimization/{id}", h.HandleGetJob)
	mux.HandleFunc("POST "+base+"/optimization/{id}/cancel", h.HandleCancelJob)
	mux.HandleFunc("GET "+base+"/optimization/{id}/violations", h.HandleViolations)

	mux.HandleFunc("GET "+base+"/routes", h.HandleListRoutes)
	mux.HandleFunc("GET "+base+"/routes/{id}", h.HandleGetRoute)
	mux.HandleFunc("GET "+base+"/routes/{id}/temperature-analysis", h.HandleTemperatureAnalysis)
	mux.HandleFunc("PATCH "+base+"/routes/{id}/status", h.HandleUpdateRouteStatus)
	mux.HandleFunc("PATCH "+base+"/routes/{id}/stops/{stop_id}", h.HandleUpdateStopStatus)

	mux.HandleFunc("POST "+base+"/vehicles", h.HandleCreateVehicle)
	mux.HandleFunc("GET "+base+"/vehicles", h.HandleListVehicles)
	mux.HandleFunc("GET "+base+"/vehicles/{id}", h.HandleGetVehicle)
	mux.HandleFunc("PUT "+base+"/vehicles/{id}", h.HandleUpdateVehicle)
	mux.HandleFunc("DELETE "+base+"/vehicles/{id}", h.HandleDeleteVehicle)

	mux.HandleFunc("POST "+base+"/shipments/reset", h.HandleResetShipments)
	mux.HandleFunc("POST "+base+"/shipments", h.HandleCreateShipment)
	mux.HandleFunc("GET "+base+"/shipments", h.HandleListShipments)
	mux.HandleFunc("GET "+base+"/shipments/{id}", h.HandleGetShipment)
	mux.HandleFunc("PUT "+base+"/shipments/{id}", h.HandleUpdateShipment)
	mux.HandleFunc("DELETE "+base+"/shipments/{id}", h.HandleDeleteShipment)

	mux.HandleFunc("POST "+base+"/depots", h.HandleCreateDepot)
	mux.HandleFunc("GET "+base+"/depots", h.HandleListDepots)
	mux.HandleFunc("GET "+base+"/depots/{id}", h.HandleGetDepot)
	mux.HandleFunc("PUT "+base+"/depots/{id}", h.HandleUpdateDepot)
	mux.HandleFunc("DELETE "+base+"/depots/{id}", h.HandleDeleteDepot)
}
