package vrp

import "logistics/internal/thermo"

// routeTiming walks depot -> seq[0] -> ... -> seq[n-1] -> depot and returns
// the time-cumul value chosen at each visited node (§4.3c: a node's cumul is
// clamped up into its window when the vehicle arrives early, and the
// insertion is infeasible if that wait exceeds the model's slack or the
// arrival overruns the window's upper bound). ok is false if any node's
// window, the horizon, or the per-node slack is violated.
func routeTiming(m *Model, seq []int) (arrivals []int, ok bool) {
	arrivals = make([]int, len(seq))
	cumul := m.EarliestDepartureMinutes
	prev := 0 // depot

	for i, nodeIdx := range seq {
		node := &m.Nodes[nodeIdx]
		travel := m.TimeMinutes[prev][nodeIdx]
		arrival := cumul + travel

		wait := 0
		if arrival < node.WindowStartMin {
			wait = node.WindowStartMin - arrival
			arrival = node.WindowStartMin
		}
		if arrival > node.WindowEndMin {
			return nil, false
		}
		if wait > m.SlackMinutes {
			return nil, false
		}
		if arrival > m.HorizonMinutes {
			return nil, false
		}

		arrivals[i] = arrival
		cumul = arrival + node.ServiceMinutes
		prev = nodeIdx
	}

	returnTravel := m.TimeMinutes[prev][0]
	if cumul+returnTravel > m.HorizonMinutes {
		return nil, false
	}

	return arrivals, true
}

// routeDemand sums the weight/volume demand of a node sequence.
func routeDemand(m *Model, seq []int) (weightG, volumeL int) {
	for _, idx := range seq {
		weightG += m.Nodes[idx].DemandWeightG
		volumeL += m.Nodes[idx].DemandVolumeL
	}
	return weightG, volumeL
}

// routeDistance sums the distance of depot -> seq -> depot in meters.
func routeDistance(m *Model, seq []int) int {
	if len(seq) == 0 {
		return 0
	}
	total := m.DistanceMeters[0][seq[0]]
	for i := 1; i < len(seq); i++ {
		total += m.DistanceMeters[seq[i-1]][seq[i]]
	}
	total += m.DistanceMeters[seq[len(seq)-1]][0]
	return total
}

// feasibleRoute reports whether seq respects the vehicle's capacity, every
// node's time-window/slack/horizon constraint, and every STRICT node's
// temperature bound (§4.2's is_feasible predicate, §8 invariant 4: a
// thermally infeasible STRICT stop can never be assigned).
func feasibleRoute(m *Model, vehicleIdx int, seq []int) bool {
	weightG, volumeL := routeDemand(m, seq)
	v := &m.Vehicles[vehicleIdx]
	if weightG > v.CapacityWeightG || volumeL > v.CapacityVolumeL {
		return false
	}
	if _, ok := routeTiming(m, seq); !ok {
		return false
	}
	return thermallyFeasibleRoute(m, vehicleIdx, seq)
}

// thermallyFeasibleRoute propagates the vehicle's thermodynamic state across
// seq and reports whether every STRICT stop stays within its temperature
// bound.
func thermallyFeasibleRoute(m *Model, vehicleIdx int, seq []int) bool {
	if len(seq) == 0 {
		return true
	}
	v := &m.Vehicles[vehicleIdx]
	stops := stopInputs(m, seq)
	results := thermo.Propagate(v.Thermo, m.AmbientTemperature, v.InitialTemp, stops)
	return thermo.IsFeasible(results, stops)
}

// stopInputs converts a node sequence into the thermo propagator's per-stop
// inputs, walking the same depot -> seq travel legs routeTiming does.
func stopInputs(m *Model, seq []int) []thermo.StopInput {
	stops := make([]thermo.StopInput, len(seq))
	prev := 0
	for i, nodeIdx := range seq {
		node := &m.Nodes[nodeIdx]
		stops[i] = thermo.StopInput{
			TravelTimeHours:  float64(m.TimeMinutes[prev][nodeIdx]) / 60,
			ServiceTimeHours: float64(node.ServiceMinutes) / 60,
			TempLimitUpper:   node.TempLimitUpper,
			TempLimitLower:   node.TempLimitLower,
			IsStrictSLA:      node.IsStrictSLA,
		}
		prev = nodeIdx
	}
	return stops
}

func insertAt(seq []int, pos, nodeIdx int) []int {
	out := make([]int, 0, len(seq)+1)
	out = append(out, seq[:pos]...)
	out = append(out, nodeIdx)
	out = append(out, seq[pos:]...)
	return out
}

func removeAt(seq []int, pos int) []int {
	out := make([]int, 0, len(seq)-1)
	out = append(out, seq[:pos]...)
	out = append(out, seq[pos+1:]...)
	return out
}
