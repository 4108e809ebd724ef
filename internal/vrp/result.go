package vrp

import (
	"time"

	"github.com/google/uuid"

	"logistics/internal/domain"
)

// RouteSolution is one vehicle's assignment in a Solution: the ordered node
// indices it visits (excluding the depot) and the time-cumul value the
// solver settled on at each one.
type RouteSolution struct {
	VehicleIndex   int
	NodeIndices    []int
	ArrivalMinutes []int
}

// Unassigned records why a shipment carries no route in the solution.
type Unassigned struct {
	ShipmentID uuid.UUID
	Reason     domain.UnassignedReason
}

// Solution is the solver driver's typed return value (§4.4): no business
// logic runs on top of it here, the materializer does that from these raw
// fields.
type Solution struct {
	Status         domain.SolverStatus
	Routes         []RouteSolution
	Unassigned     []Unassigned
	ObjectiveValue float64
	SolveTime      time.Duration
}

// TotalDistanceMeters sums every route's round-trip distance.
func (s *Solution) TotalDistanceMeters(m *Model) int {
	total := 0
	for _, r := range s.Routes {
		total += routeDistance(m, r.NodeIndices)
	}
	return total
}
