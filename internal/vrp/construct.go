package vrp

// candidate is one feasible insertion point considered by the construction
// heuristic.
type candidate struct {
	nodeIdx      int
	vehicleIdx   int
	pos          int
	newSeq       []int
	deltaCost    float64
	opensVehicle bool
}

// cheapestInsertion implements §4.3f's "parallel cheapest insertion"
// first-solution strategy: at every step it finds the globally cheapest
// feasible insertion across all unassigned nodes and all routes (rather
// than completing one vehicle's route before starting the next), and
// applies it. A node whose cheapest feasible insertion costs more than its
// drop penalty is dropped instead of inserted; a node with no feasible
// insertion at all is left unassigned.
func cheapestInsertion(m *Model, routes [][]int, unassigned map[int]bool) (dropped []int, infeasible []int) {
	openCount := 0
	for _, seq := range routes {
		if len(seq) > 0 {
			openCount++
		}
	}

	for len(unassigned) > 0 {
		best, ok := bestCandidate(m, routes, unassigned, openCount)
		if !ok {
			break
		}

		node := &m.Nodes[best.nodeIdx]
		if !node.IsStrictSLA && best.deltaCost > float64(node.DropPenalty) {
			dropped = append(dropped, best.nodeIdx)
			delete(unassigned, best.nodeIdx)
			continue
		}

		if best.opensVehicle {
			openCount++
		}
		routes[best.vehicleIdx] = best.newSeq
		delete(unassigned, best.nodeIdx)
	}

	for nodeIdx := range unassigned {
		infeasible = append(infeasible, nodeIdx)
	}

	return dropped, infeasible
}

func bestCandidate(m *Model, routes [][]int, unassigned map[int]bool, openCount int) (candidate, bool) {
	var best candidate
	found := false

	for nodeIdx := range unassigned {
		for vIdx := range m.Vehicles {
			opensVehicle := len(routes[vIdx]) == 0
			if opensVehicle && m.MaxVehicles > 0 && openCount >= m.MaxVehicles {
				continue
			}

			seq := routes[vIdx]
			for pos := 0; pos <= len(seq); pos++ {
				candSeq := insertAt(seq, pos, nodeIdx)
				if !feasibleRoute(m, vIdx, candSeq) {
					continue
				}

				delta := float64(routeDistance(m, candSeq)-routeDistance(m, seq)) / 1000 * m.DistanceCostPerKM
				if opensVehicle {
					delta += float64(m.Vehicles[vIdx].FixedCost)
				}

				if !found || delta < best.deltaCost {
					best = candidate{
						nodeIdx:      nodeIdx,
						vehicleIdx:   vIdx,
						pos:          pos,
						newSeq:       candSeq,
						deltaCost:    delta,
						opensVehicle: opensVehicle,
					}
					found = true
				}
			}
		}
	}

	return best, found
}
