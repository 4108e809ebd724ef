package httpapi

import "logistics/internal/domain"

// classifyUnassigned best-guesses why the solver dropped s, in priority
// order: an empty fleet (NO_VEHICLE), no vehicle whose total weight/volume
// capacity covers it (CAPACITY) or whose min_temp_capability is at or below
// its upper limit (TEMPERATURE), a widest time window under 30 minutes
// (TIME_WINDOW), a STRICT tier (SLA), and otherwise unknown. It does not
// check whether a window is reachable from the depot. This is new logic with no original_source/ equivalent
// to ground it on; it reasons purely from the fields already on Shipment
// and Vehicle.
func classifyUnassigned(s *domain.Shipment, fleet []*domain.Vehicle) domain.UnassignedReason {
	if len(fleet) == 0 {
		return domain.ReasonNoVehicle
	}

	canCarryWeight := false
	canCarryVolume := false
	canReachTemp := false
	for _, v := range fleet {
		if v.CapacityWeight >= s.Weight {
			canCarryWeight = true
		}
		if s.Volume == nil || v.CapacityVolume >= *s.Volume {
			canCarryVolume = true
		}
		if v.MinTempCapability <= s.TempLimitUpper {
			canReachTemp = true
		}
	}

	switch {
	case !canCarryWeight || !canCarryVolume:
		return domain.ReasonCapacity
	case !canReachTemp:
		return domain.ReasonTemperature
	}

	window := s.WidestWindow()
	const tightWindowMinutes = 30
	if window.EndMinutes-window.StartMinutes < tightWindowMinutes {
		return domain.ReasonTimeWindow
	}

	if s.SLATier == domain.SLAStrict {
		return domain.ReasonSLA
	}

	return domain.ReasonUnknown
}
