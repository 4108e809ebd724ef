package domain

import (
	"time"

	"github.com/google/uuid"

	"logistics/pkg/apperror"
)

// TimeWindow is a wall-clock interval on the plan date, expressed in minutes
// from midnight (§4.3c uses this representation directly). Both ends are
// inclusive (see Contains).
type TimeWindow struct {
	StartMinutes int `json:"start"`
	EndMinutes   int `json:"end"`
}

// Contains reports whether arrivalMinutes falls within [start, end].
func (w TimeWindow) Contains(arrivalMinutes int) bool {
	return arrivalMinutes >= w.StartMinutes && arrivalMinutes <= w.EndMinutes
}

// Shipment is a delivery order awaiting assignment to a route.
type Shipment struct {
	ID          uuid.UUID
	OrderNumber string

	Latitude  float64
	Longitude float64

	TimeWindows []TimeWindow

	SLATier SLATier

	TempLimitUpper float64
	TempLimitLower *float64

	ServiceDurationMinutes int
	Weight                 float64 // kg
	Volume                 *float64 // m^3
	Priority               int     // 0..100

	Status ShipmentStatus

	RouteID       *uuid.UUID
	RouteSequence *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WidestWindow returns the union-hull of all time windows: [min(start),
// max(end)], matching the builder's §4.3c multi-window domain.
func (s *Shipment) WidestWindow() TimeWindow {
	if len(s.TimeWindows) == 0 {
		return TimeWindow{}
	}
	w := s.TimeWindows[0]
	for _, tw := range s.TimeWindows[1:] {
		if tw.StartMinutes < w.StartMinutes {
			w.StartMinutes = tw.StartMinutes
		}
		if tw.EndMinutes > w.EndMinutes {
			w.EndMinutes = tw.EndMinutes
		}
	}
	return w
}

// WindowIndexFor returns the index of the first time window enclosing
// arrivalMinutes, or 0 if none encloses it (§4.5.1.d).
func (s *Shipment) WindowIndexFor(arrivalMinutes int) int {
	for i, w := range s.TimeWindows {
		if w.Contains(arrivalMinutes) {
			return i
		}
	}
	return 0
}

// WeightGrams returns the unary demand in grams used by the weight
// dimension (§4.3b): ceil(weight_kg * 1000).
func (s *Shipment) WeightGrams() int {
	return ceilToInt(s.Weight * 1000)
}

// VolumeLiters returns the unary demand in liters used by the volume
// dimension, or 0 if the shipment carries no volume figure.
func (s *Shipment) VolumeLiters() int {
	if s.Volume == nil {
		return 0
	}
	return ceilToInt(*s.Volume * 1000)
}

func ceilToInt(v float64) int {
	i := int(v)
	if float64(i) < v {
		i++
	}
	return i
}

// Validate checks the static field constraints of spec.md §3.
func (s *Shipment) Validate() error {
	var errs apperror.ValidationErrors
	if s.OrderNumber == "" {
		errs.Add("order_number", "is required")
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		errs.Add("latitude", "must be within [-90, 90]")
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		errs.Add("longitude", "must be within [-180, 180]")
	}
	if len(s.TimeWindows) == 0 {
		errs.Add("time_windows", "must contain at least one window")
	}
	for _, w := range s.TimeWindows {
		if w.StartMinutes >= w.EndMinutes {
			errs.Add("time_windows", "each window's start must be before its end")
			break
		}
	}
	if !s.SLATier.Valid() {
		errs.Add("sla_tier", "must be one of STRICT, STANDARD")
	}
	if s.ServiceDurationMinutes < 1 || s.ServiceDurationMinutes > 120 {
		errs.Add("service_duration", "must be within [1, 120] minutes")
	}
	if s.Weight <= 0 {
		errs.Add("weight", "must be > 0")
	}
	if s.Priority < 0 || s.Priority > 100 {
		errs.Add("priority", "must be within [0, 100]")
	}
	if errs.HasErrors() {
		return apperror.New(apperror.CodeValidationError, "shipment validation failed").WithDetails(map[string]any{"errors": errs.ErrorMessages()})
	}
	return nil
}
