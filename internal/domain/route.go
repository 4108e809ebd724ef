package domain

import (
	"time"

	"github.com/google/uuid"
)

// Route is an ordered tour for one vehicle on one day (§3).
type Route struct {
	ID        uuid.UUID
	RouteCode string
	PlanDate  time.Time
	VehicleID uuid.UUID
	DriverID  *uuid.UUID
	Status    RouteStatus

	TotalStops        int
	TotalDistanceKM    float64
	TotalDurationMin   float64
	TotalWeight        float64
	TotalVolume        float64

	InitialTemp       float64
	PredictedFinalTemp float64
	PredictedMaxTemp   float64

	PlannedDeparture time.Time
	PlannedReturn    time.Time

	DepotLat     float64
	DepotLon     float64
	DepotAddress string

	OptimizationJobID uuid.UUID
	OptimizationCost  float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RouteStop is one visit within a route (§3).
type RouteStop struct {
	ID             uuid.UUID
	RouteID        uuid.UUID
	SequenceNumber int // >= 1

	ShipmentID uuid.UUID
	Latitude   float64
	Longitude  float64
	Address    string

	ExpectedArrivalAt   time.Time
	ExpectedDepartureAt time.Time

	TargetTimeWindowIndex int
	SlackMinutes          int

	PredictedArrivalTemp   float64
	TransitTempRise        float64
	ServiceTempRise         float64
	CoolingApplied          float64
	PredictedDepartureTemp float64
	IsTempFeasible          bool

	DistanceFromPrevM     float64
	TravelTimeFromPrevMin float64

	CreatedAt time.Time
	UpdatedAt time.Time
}
