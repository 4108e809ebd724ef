package vrp

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logistics/internal/domain"
	"logistics/internal/matrix"
	"logistics/internal/thermo"
)

func gridModel(t *testing.T) *Model {
	t.Helper()

	points := []matrix.Point{
		{Latitude: 0, Longitude: 0},   // depot
		{Latitude: 0, Longitude: 0.01}, // ~1.1km
		{Latitude: 0, Longitude: 0.02}, // ~2.2km
		{Latitude: 0, Longitude: 0.03}, // ~3.3km
	}
	grids := matrix.Build(points, 30)

	nodes := []Node{
		{Index: 0},
		{Index: 1, ShipmentID: uuid.New(), DemandWeightG: 1000, DemandVolumeL: 1, ServiceMinutes: 5, WindowStartMin: 0, WindowEndMin: 1440, Priority: 50},
		{Index: 2, ShipmentID: uuid.New(), DemandWeightG: 1000, DemandVolumeL: 1, ServiceMinutes: 5, WindowStartMin: 0, WindowEndMin: 1440, Priority: 50},
		{Index: 3, ShipmentID: uuid.New(), DemandWeightG: 1000, DemandVolumeL: 1, ServiceMinutes: 5, WindowStartMin: 0, WindowEndMin: 1440, Priority: 50},
	}

	return &Model{
		Nodes:                    nodes,
		Vehicles:                 []VehicleSpec{{Index: 0, CapacityWeightG: 100000, CapacityVolumeL: 100, FixedCost: 5000}},
		DistanceMeters:           grids.Distance,
		TimeMinutes:              grids.Time,
		EarliestDepartureMinutes: 480,
		HorizonMinutes:           1440,
		SlackMinutes:             60,
		TimeLimitSeconds:         5,
		DistanceCostPerKM:        1.0,
		InfeasibleCost:           1000000,
	}
}

func TestSolve_AssignsAllFeasibleNodes(t *testing.T) {
	m := gridModel(t)
	drv := NewDriver()

	sol, err := drv.Solve(context.Background(), m)
	require.NoError(t, err)

	assert.True(t, sol.Status.Succeeded())
	assert.Empty(t, sol.Unassigned)
	require.Len(t, sol.Routes, 1)
	assert.Len(t, sol.Routes[0].NodeIndices, 3)
}

func TestSolve_NoVehiclesIsNotSolved(t *testing.T) {
	m := gridModel(t)
	m.Vehicles = nil
	drv := NewDriver()

	sol, err := drv.Solve(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, domain.SolverNotSolved, sol.Status)
	assert.Len(t, sol.Unassigned, 3)
}

func TestSolve_StrictNodeOutsideWindowIsInfeasible(t *testing.T) {
	m := gridModel(t)
	m.Nodes[1].IsStrictSLA = true
	m.Nodes[1].WindowStartMin = 0
	m.Nodes[1].WindowEndMin = 1 // impossible to reach by minute 1

	drv := NewDriver()
	sol, err := drv.Solve(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, domain.SolverInfeasible, sol.Status)
	found := false
	for _, u := range sol.Unassigned {
		if u.ShipmentID == m.Nodes[1].ShipmentID {
			found = true
			assert.Equal(t, domain.ReasonTimeWindow, u.Reason)
		}
	}
	assert.True(t, found)
}

// TestSolve_StrictNodeBeyondThermalLimitIsInfeasible asserts §4.2/§8
// invariant 4: a STRICT cold-chain stop no vehicle in the fleet can keep
// within its temperature bound must end up unassigned with
// domain.ReasonTemperature, never silently assigned to a route.
func TestSolve_StrictNodeBeyondThermalLimitIsInfeasible(t *testing.T) {
	m := gridModel(t)
	m.AmbientTemperature = 30
	m.Vehicles[0].InitialTemp = 25
	m.Vehicles[0].Thermo = thermo.VehicleParams{KValue: 0.5, DoorCoefficient: 0, CurtainFactor: 1, CoolingRate: 0}

	m.Nodes[1].IsStrictSLA = true
	m.Nodes[1].TempLimitUpper = 4 // unreachable: the vehicle starts at 25°C and only warms in transit

	drv := NewDriver()
	sol, err := drv.Solve(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, domain.SolverInfeasible, sol.Status)
	found := false
	for _, u := range sol.Unassigned {
		if u.ShipmentID == m.Nodes[1].ShipmentID {
			found = true
			assert.Equal(t, domain.ReasonTemperature, u.Reason)
		}
	}
	assert.True(t, found)

	for _, r := range sol.Routes {
		for _, idx := range r.NodeIndices {
			assert.NotEqual(t, m.Nodes[1].ShipmentID, m.Nodes[idx].ShipmentID, "thermally infeasible STRICT stop must never be assigned")
		}
	}
}

func TestSolve_ExpensiveStandardNodeIsDropped(t *testing.T) {
	m := gridModel(t)
	// Make node 3 very low priority so its drop penalty is small, and put
	// it far enough that detouring is not worth it relative to the penalty.
	m.Nodes[3].Priority = 1
	m.Nodes[3].DropPenalty = 1 // trivially cheaper to drop than to serve

	drv := NewDriver()
	sol, err := drv.Solve(context.Background(), m)
	require.NoError(t, err)

	droppedNode3 := false
	for _, u := range sol.Unassigned {
		if u.ShipmentID == m.Nodes[3].ShipmentID {
			droppedNode3 = true
			assert.Equal(t, domain.ReasonCostPenalty, u.Reason)
		}
	}
	assert.True(t, droppedNode3)
}

func TestSolve_RespectsCapacity(t *testing.T) {
	m := gridModel(t)
	m.Vehicles[0].CapacityWeightG = 1500 // only room for one node

	drv := NewDriver()
	sol, err := drv.Solve(context.Background(), m)
	require.NoError(t, err)

	require.Len(t, sol.Routes, 1)
	assert.Len(t, sol.Routes[0].NodeIndices, 1)
	assert.Len(t, sol.Unassigned, 2)
}

func TestSolve_MaxVehiclesCapsFleetUsage(t *testing.T) {
	m := gridModel(t)
	m.Vehicles = []VehicleSpec{
		{Index: 0, CapacityWeightG: 1500, CapacityVolumeL: 100, FixedCost: 5000},
		{Index: 1, CapacityWeightG: 1500, CapacityVolumeL: 100, FixedCost: 5000},
		{Index: 2, CapacityWeightG: 1500, CapacityVolumeL: 100, FixedCost: 5000},
	}
	m.MaxVehicles = 1

	drv := NewDriver()
	sol, err := drv.Solve(context.Background(), m)
	require.NoError(t, err)

	opened := 0
	for _, r := range sol.Routes {
		if len(r.NodeIndices) > 0 {
			opened++
		}
	}
	assert.LessOrEqual(t, opened, 1)
}

func TestSolution_TotalDistanceMeters(t *testing.T) {
	m := gridModel(t)
	drv := NewDriver()

	sol, err := drv.Solve(context.Background(), m)
	require.NoError(t, err)

	assert.Greater(t, sol.TotalDistanceMeters(m), 0)
}
