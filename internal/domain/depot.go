package domain

import (
	"time"

	"github.com/google/uuid"

	"logistics/pkg/apperror"
)

// Depot is the start/end location for every vehicle's tour on a plan date.
type Depot struct {
	ID        uuid.UUID
	Latitude  float64
	Longitude float64
	Address   string
	Active    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the static field constraints of spec.md §3.
func (d *Depot) Validate() error {
	var errs apperror.ValidationErrors
	if d.Latitude < -90 || d.Latitude > 90 {
		errs.Add("latitude", "must be within [-90, 90]")
	}
	if d.Longitude < -180 || d.Longitude > 180 {
		errs.Add("longitude", "must be within [-180, 180]")
	}
	if d.Address == "" {
		errs.Add("address", "is required")
	}
	if errs.HasErrors() {
		return apperror.New(apperror.CodeValidationError, "depot validation failed").WithDetails(map[string]any{"errors": errs.ErrorMessages()})
	}
	return nil
}
