// Package thermo implements the §4.2 thermodynamic propagator: a pure
// function of vehicle parameters, ambient temperature, an initial
// compartment temperature, and a sequence of (travel time, service time,
// temperature limits) per stop. It has no dependency on the solver or on
// persistence so it can be property-tested in isolation (§9 "Temperature
// model seam").
package thermo

// VehicleParams are the thermodynamic inputs of a single vehicle, derived
// from its insulation grade and door type (domain.Vehicle.Normalize).
type VehicleParams struct {
	KValue          float64 // heat-transfer coefficient
	DoorCoefficient float64
	CurtainFactor   float64 // 0.5 with strip curtains, else 1.0
	CoolingRate     float64 // °C/hour, typically negative
}

// StopInput is one stop's contribution to the propagation: travel time from
// the previous node, service duration at this stop, and its temperature
// ceiling/floor.
type StopInput struct {
	TravelTimeHours    float64
	ServiceTimeHours    float64
	TempLimitUpper      float64
	TempLimitLower      *float64
	IsStrictSLA         bool
}

// StopResult is the computed temperature trace for one stop.
type StopResult struct {
	ArrivalTemp       float64
	DepartureTemp     float64
	TransitRise       float64
	DoorRise          float64
	CoolingApplied    float64
	IsTempFeasible    bool
	ViolationAmount   float64
}

// TransitRise computes ΔT_drive = Δt_travel · (A − T) · K (§4.2).
func TransitRise(p VehicleParams, ambient, currentTemp, travelHours float64) float64 {
	return travelHours * (ambient - currentTemp) * p.KValue
}

// DoorRise computes ΔT_door = Δt_service · C · curtain_factor (§4.2).
func DoorRise(p VehicleParams, serviceHours float64) float64 {
	return serviceHours * p.DoorCoefficient * p.CurtainFactor
}

// CoolingEffect computes ΔT_cool = Δt_travel · R (§4.2); always applied
// during propagation regardless of SLA tier.
func CoolingEffect(p VehicleParams, travelHours float64) float64 {
	return travelHours * p.CoolingRate
}

// Propagate walks the thermodynamic state across an ordered sequence of
// stops, starting from initialTemp at the depot, and returns one StopResult
// per stop in the same order (§4.2 steps 1-3).
func Propagate(p VehicleParams, ambient, initialTemp float64, stops []StopInput) []StopResult {
	results := make([]StopResult, len(stops))
	current := initialTemp

	for i, s := range stops {
		transitRise := TransitRise(p, ambient, current, s.TravelTimeHours)
		cooling := CoolingEffect(p, s.TravelTimeHours)
		arrival := current + transitRise + cooling

		doorRise := DoorRise(p, s.ServiceTimeHours)
		departure := arrival + doorRise

		feasible := arrival <= s.TempLimitUpper
		violation := 0.0
		if arrival > s.TempLimitUpper {
			violation = arrival - s.TempLimitUpper
		}
		if s.TempLimitLower != nil && arrival < *s.TempLimitLower {
			feasible = false
			lowerViolation := *s.TempLimitLower - arrival
			if lowerViolation > violation {
				violation = lowerViolation
			}
		}

		results[i] = StopResult{
			ArrivalTemp:     arrival,
			DepartureTemp:   departure,
			TransitRise:     transitRise,
			DoorRise:        doorRise,
			CoolingApplied:  cooling,
			IsTempFeasible:  feasible,
			ViolationAmount: violation,
		}

		current = departure
	}

	return results
}

// RoutePenalty computes §4.2's route_penalty: the sum of
// max(0, arrival-upper)·P_temp for STANDARD stops, or InfeasibleCost as
// soon as any STRICT stop is infeasible.
func RoutePenalty(results []StopResult, stops []StopInput, tempViolationPenalty, infeasibleCost int) int {
	total := 0
	for i, r := range results {
		if r.IsTempFeasible {
			continue
		}
		if stops[i].IsStrictSLA {
			return infeasibleCost
		}
		total += int(r.ViolationAmount * float64(tempViolationPenalty))
	}
	return total
}

// IsFeasible reports whether no STRICT stop violates its temperature bound
// (§4.2's is_feasible predicate).
func IsFeasible(results []StopResult, stops []StopInput) bool {
	for i, r := range results {
		if !r.IsTempFeasible && stops[i].IsStrictSLA {
			return false
		}
	}
	return true
}

// MaxArrivalTemp returns the highest arrival temperature across all stops,
// used to compute a route's predicted_max_temp (§3 Route, §4.5.1.e).
func MaxArrivalTemp(results []StopResult) float64 {
	max := 0.0
	for i, r := range results {
		if i == 0 || r.ArrivalTemp > max {
			max = r.ArrivalTemp
		}
	}
	return max
}
