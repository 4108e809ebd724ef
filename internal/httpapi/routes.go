package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"logistics/internal/domain"
	"logistics/internal/repository"
	"logistics/pkg/apperror"
)

type routeResponse struct {
	ID                 uuid.UUID         `json:"id"`
	RouteCode          string            `json:"route_code"`
	PlanDate           string            `json:"plan_date"`
	VehicleID          uuid.UUID         `json:"vehicle_id"`
	Status             domain.RouteStatus `json:"status"`
	TotalStops         int               `json:"total_stops"`
	TotalDistanceKM    float64           `json:"total_distance_km"`
	TotalDurationMin   float64           `json:"total_duration_min"`
	InitialTemp        float64           `json:"initial_temp"`
	PredictedFinalTemp float64           `json:"predicted_final_temp"`
	PredictedMaxTemp   float64           `json:"predicted_max_temp"`
	PlannedDeparture   time.Time         `json:"planned_departure"`
	PlannedReturn      time.Time         `json:"planned_return"`
	Stops              []routeStopDTO    `json:"stops,omitempty"`
}

type routeStopDTO struct {
	ID                     uuid.UUID `json:"id"`
	SequenceNumber         int       `json:"sequence_number"`
	ShipmentID             uuid.UUID `json:"shipment_id"`
	ExpectedArrivalAt      time.Time `json:"expected_arrival_at"`
	ExpectedDepartureAt    time.Time `json:"expected_departure_at"`
	PredictedArrivalTemp   float64   `json:"predicted_arrival_temp"`
	TransitTempRise        float64   `json:"transit_temp_rise"`
	ServiceTempRise        float64   `json:"service_temp_rise"`
	CoolingApplied         float64   `json:"cooling_applied"`
	PredictedDepartureTemp float64   `json:"predicted_departure_temp"`
	IsTempFeasible         bool      `json:"is_temp_feasible"`
}

func toRouteStopDTO(s domain.RouteStop) routeStopDTO {
	return routeStopDTO{
		ID:                     s.ID,
		SequenceNumber:         s.SequenceNumber,
		ShipmentID:             s.ShipmentID,
		ExpectedArrivalAt:      s.ExpectedArrivalAt,
		ExpectedDepartureAt:    s.ExpectedDepartureAt,
		PredictedArrivalTemp:   s.PredictedArrivalTemp,
		TransitTempRise:        s.TransitTempRise,
		ServiceTempRise:        s.ServiceTempRise,
		CoolingApplied:         s.CoolingApplied,
		PredictedDepartureTemp: s.PredictedDepartureTemp,
		IsTempFeasible:         s.IsTempFeasible,
	}
}

func toRouteResponse(r *domain.Route, stops []domain.RouteStop) routeResponse {
	resp := routeResponse{
		ID:                 r.ID,
		RouteCode:          r.RouteCode,
		PlanDate:           r.PlanDate.Format("2006-01-02"),
		VehicleID:          r.VehicleID,
		Status:             r.Status,
		TotalStops:         r.TotalStops,
		TotalDistanceKM:    r.TotalDistanceKM,
		TotalDurationMin:   r.TotalDurationMin,
		InitialTemp:        r.InitialTemp,
		PredictedFinalTemp: r.PredictedFinalTemp,
		PredictedMaxTemp:   r.PredictedMaxTemp,
		PlannedDeparture:   r.PlannedDeparture,
		PlannedReturn:      r.PlannedReturn,
	}
	for _, s := range stops {
		resp.Stops = append(resp.Stops, toRouteStopDTO(s))
	}
	return resp
}

// HandleListRoutes implements GET /routes?plan_date=&status=&vehicle_id=.
func (h *Handlers) HandleListRoutes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.RouteFilter{Limit: 50}

	if raw := q.Get("plan_date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, apperror.NewWithField(apperror.CodeValidationError, "plan_date", "must be YYYY-MM-DD"))
			return
		}
		filter.PlanDate = &d
	}
	if raw := q.Get("status"); raw != "" {
		filter.Status = repository.RouteStatusFilter{Value: domain.RouteStatus(raw), Set: true}
	}
	if raw := q.Get("vehicle_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, apperror.NewWithField(apperror.CodeValidationError, "vehicle_id", "must be a valid uuid"))
			return
		}
		filter.VehicleID = &id
	}

	routes, err := h.Routes.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]routeResponse, 0, len(routes))
	for _, route := range routes {
		out = append(out, toRouteResponse(route, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetRoute implements GET /routes/{id}.
func (h *Handlers) HandleGetRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	route, err := h.Routes.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	stops, err := h.Routes.GetStops(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRouteResponse(route, stops))
}

type stopTemperatureBreakdown struct {
	StopID                 uuid.UUID `json:"stop_id"`
	SequenceNumber         int       `json:"sequence_number"`
	TransitTempRise        float64   `json:"transit_temp_rise"`
	ServiceTempRise        float64   `json:"service_temp_rise"`
	CoolingApplied         float64   `json:"cooling_applied"`
	PredictedArrivalTemp   float64   `json:"predicted_arrival_temp"`
	PredictedDepartureTemp float64   `json:"predicted_departure_temp"`
	IsTempFeasible         bool      `json:"is_temp_feasible"`
}

// HandleTemperatureAnalysis implements GET /routes/{id}/temperature-analysis.
func (h *Handlers) HandleTemperatureAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	route, err := h.Routes.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	stops, err := h.Routes.GetStops(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	breakdown := make([]stopTemperatureBreakdown, 0, len(stops))
	for _, s := range stops {
		breakdown = append(breakdown, stopTemperatureBreakdown{
			StopID:                 s.ID,
			SequenceNumber:         s.SequenceNumber,
			TransitTempRise:        s.TransitTempRise,
			ServiceTempRise:        s.ServiceTempRise,
			CoolingApplied:         s.CoolingApplied,
			PredictedArrivalTemp:   s.PredictedArrivalTemp,
			PredictedDepartureTemp: s.PredictedDepartureTemp,
			IsTempFeasible:         s.IsTempFeasible,
		})
	}

	writeJSON(w, http.StatusOK, struct {
		RouteID            uuid.UUID                  `json:"route_id"`
		InitialTemp        float64                    `json:"initial_temp"`
		PredictedFinalTemp float64                    `json:"predicted_final_temp"`
		PredictedMaxTemp   float64                    `json:"predicted_max_temp"`
		Stops              []stopTemperatureBreakdown `json:"stops"`
	}{
		RouteID:            route.ID,
		InitialTemp:        route.InitialTemp,
		PredictedFinalTemp: route.PredictedFinalTemp,
		PredictedMaxTemp:   route.PredictedMaxTemp,
		Stops:              breakdown,
	})
}

type updateRouteStatusRequest struct {
	Status domain.RouteStatus `json:"status"`
}

// HandleUpdateRouteStatus implements PATCH /routes/{id}/status.
func (h *Handlers) HandleUpdateRouteStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateRouteStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	switch req.Status {
	case domain.RouteScheduled, domain.RouteInProgress, domain.RouteCompleted, domain.RouteAborted:
	default:
		writeError(w, apperror.NewWithField(apperror.CodeValidationError, "status", "not a recognized route status"))
		return
	}

	if err := h.Routes.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

type updateStopRequest struct {
	ArrivalTemp *float64 `json:"arrival_temp"`
}

// HandleUpdateStopStatus implements PATCH /routes/{id}/stops/{stop_id}.
func (h *Handlers) HandleUpdateStopStatus(w http.ResponseWriter, r *http.Request) {
	stopID, err := pathUUID(r, "stop_id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateStopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Routes.UpdateStopStatus(r.Context(), stopID, req.ArrivalTemp); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}
