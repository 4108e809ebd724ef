package vrp

import (
	"strconv"
	"strings"

	"logistics/internal/domain"
	"logistics/internal/matrix"
	"logistics/internal/thermo"
)

// BuildParams carries the cost coefficients and plan-wide settings needed to
// translate domain entities into a Model (§4.3, §6 configuration table).
type BuildParams struct {
	AmbientTemperature   float64
	InitialVehicleTemp   float64
	TimeLimitSeconds     int
	MaxVehicles          int
	PlannedDepartureTime string // "HH:MM"
	AverageSpeedKMH      float64

	VehicleFixedCost  int
	DistanceCostPerKM float64
	InfeasibleCost    int
}

// Build translates vehicles, shipments and a depot into a backend-neutral
// Model (§4.3a-f). Shipment order determines node indices 1..N-1; the depot
// is always node 0.
func Build(vehicles []domain.Vehicle, shipments []domain.Shipment, depot domain.Depot, params BuildParams) *Model {
	points := make([]matrix.Point, 0, len(shipments)+1)
	points = append(points, matrix.Point{Latitude: depot.Latitude, Longitude: depot.Longitude})

	nodes := make([]Node, 0, len(shipments)+1)
	nodes = append(nodes, Node{Index: 0})

	for i, s := range shipments {
		points = append(points, matrix.Point{Latitude: s.Latitude, Longitude: s.Longitude})
		nodes = append(nodes, buildShipmentNode(i+1, &s, params.VehicleFixedCost))
	}

	speed := params.AverageSpeedKMH
	if speed <= 0 {
		speed = 30
	}
	grids := matrix.Build(points, speed)

	vehicleSpecs := make([]VehicleSpec, 0, len(vehicles))
	for i, v := range vehicles {
		vehicleSpecs = append(vehicleSpecs, VehicleSpec{
			Index:           i,
			ID:              v.ID,
			CapacityWeightG: int(v.CapacityWeight * 1000),
			CapacityVolumeL: int(v.CapacityVolume * 1000),
			FixedCost:       params.VehicleFixedCost,
			Thermo: thermo.VehicleParams{
				KValue:          v.KValue,
				DoorCoefficient: v.DoorCoefficient,
				CurtainFactor:   v.CurtainFactor(),
				CoolingRate:     v.CoolingRate,
			},
			InitialTemp: params.InitialVehicleTemp,
		})
	}

	return &Model{
		Nodes:                    nodes,
		Vehicles:                 vehicleSpecs,
		DistanceMeters:           grids.Distance,
		TimeMinutes:              grids.Time,
		EarliestDepartureMinutes: parseHHMM(params.PlannedDepartureTime),
		HorizonMinutes:           24 * 60,
		SlackMinutes:             60,
		AmbientTemperature:       params.AmbientTemperature,
		TimeLimitSeconds:         params.TimeLimitSeconds,
		MaxVehicles:              params.MaxVehicles,
		DistanceCostPerKM:        params.DistanceCostPerKM,
		InfeasibleCost:           params.InfeasibleCost,
	}
}

func buildShipmentNode(index int, s *domain.Shipment, vehicleFixedCost int) Node {
	windows := make([]Window, len(s.TimeWindows))
	for i, w := range s.TimeWindows {
		windows[i] = Window{StartMinutes: w.StartMinutes, EndMinutes: w.EndMinutes}
	}

	hull := s.WidestWindow()

	return Node{
		Index:          index,
		ShipmentID:     s.ID,
		DemandWeightG:  s.WeightGrams(),
		DemandVolumeL:  s.VolumeLiters(),
		ServiceMinutes: s.ServiceDurationMinutes,
		WindowStartMin: hull.StartMinutes,
		WindowEndMin:   hull.EndMinutes,
		Windows:        windows,
		TempLimitUpper: s.TempLimitUpper,
		TempLimitLower: s.TempLimitLower,
		IsStrictSLA:    s.SLATier == domain.SLAStrict,
		Priority:       s.Priority,
		DropPenalty:    dropPenalty(s, vehicleFixedCost),
	}
}

// dropPenalty implements §4.3d: STRICT shipments carry the infeasible cost
// (effectively must-serve); STANDARD shipments carry a priority-weighted
// penalty below that, fixed*3*(101-priority)/100, which exceeds the vehicle
// fixed cost for priorities up to 67 and falls below it from 68 upwards.
func dropPenalty(s *domain.Shipment, vehicleFixedCost int) int {
	if s.SLATier == domain.SLAStrict {
		return 0 // caller substitutes model.InfeasibleCost for STRICT nodes
	}
	return (vehicleFixedCost * 3 * (101 - s.Priority)) / 100
}

// parseHHMM parses "HH:MM" into minutes from midnight; malformed or empty
// input yields 0 (meaning "no earlier than midnight").
func parseHHMM(hhmm string) int {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0
	}
	return h*60 + m
}
