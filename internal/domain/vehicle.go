package domain

import (
	"time"

	"github.com/google/uuid"

	"logistics/pkg/apperror"
)

// Vehicle is a mobile refrigerated unit available to carry shipments.
type Vehicle struct {
	ID             uuid.UUID
	LicensePlate   string
	CapacityWeight float64 // kg
	CapacityVolume float64 // m^3

	InsulationGrade   InsulationGrade
	DoorType          DoorType
	HasStripCurtains  bool
	CoolingRate       float64 // °C/hour, typically negative
	MinTempCapability float64 // °C

	// KValue and DoorCoefficient are derived from InsulationGrade/DoorType and
	// kept in sync by Normalize; spec.md §3 requires the persisted form equal
	// the canonical derived value for the current grade/type.
	KValue          float64
	DoorCoefficient float64

	CurrentLat *float64
	CurrentLon *float64

	Status VehicleStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CurtainFactor returns 0.5 when strip curtains are fitted, else 1.0 (§4.2).
func (v *Vehicle) CurtainFactor() float64 {
	if v.HasStripCurtains {
		return 0.5
	}
	return 1.0
}

// Normalize recomputes KValue/DoorCoefficient from the current grade/type,
// enforcing the update-on-change invariant of spec.md §3.
func (v *Vehicle) Normalize() {
	v.KValue = v.InsulationGrade.KValue()
	v.DoorCoefficient = v.DoorType.Coefficient()
}

// Validate checks the static field constraints of spec.md §3.
func (v *Vehicle) Validate() error {
	var errs apperror.ValidationErrors
	if v.LicensePlate == "" {
		errs.Add("license_plate", "is required")
	}
	if v.CapacityWeight <= 0 {
		errs.Add("capacity_weight", "must be > 0")
	}
	if v.CapacityVolume <= 0 {
		errs.Add("capacity_volume", "must be > 0")
	}
	if !v.InsulationGrade.Valid() {
		errs.Add("insulation_grade", "must be one of PREMIUM, STANDARD, BASIC")
	}
	if !v.DoorType.Valid() {
		errs.Add("door_type", "must be one of ROLL, SWING")
	}
	if errs.HasErrors() {
		return apperror.New(apperror.CodeValidationError, "vehicle validation failed").WithDetails(map[string]any{"errors": errs.ErrorMessages()})
	}
	return nil
}
