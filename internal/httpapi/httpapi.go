// Package httpapi implements the §6 JSON HTTP surface: request decoding,
// response encoding and the per-resource handlers mounted onto
// pkg/server.HTTPServer's mux. Errors are translated to the
// {code, message, details} body apperror.Error carries, at the status
// apperror.Error.ToHTTPStatus assigns it.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"logistics/internal/auth"
	"logistics/internal/crud"
	"logistics/internal/job"
	"logistics/internal/repository"
	"logistics/pkg/apperror"
)

// Handlers owns every dependency the §6 route table needs.
type Handlers struct {
	Orchestrator *job.Orchestrator
	Auth         *auth.Service
	Vehicles     *crud.VehicleService
	Shipments    *crud.ShipmentService
	Depots       *crud.DepotService
	Routes       repository.RouteRepository
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// errorBody is the wire shape of every non-2xx response.
type errorBody struct {
	Code    apperror.ErrorCode `json:"code"`
	Message string             `json:"message"`
	Details map[string]any     `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	status, appErr := apperror.ToHTTP(err)
	writeJSON(w, status, errorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.Wrap(err, apperror.CodeValidationError, "malformed request body")
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperror.NewWithField(apperror.CodeValidationError, name, "must be a valid uuid")
	}
	return id, nil
}
