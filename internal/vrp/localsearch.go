package vrp

import "time"

// improve runs a bounded relocate/2-opt local search over routes until no
// improving move remains or deadline is reached (§4.3f "guided local
// search metaheuristic" — this driver implements a plain descent variant of
// it, since no routing library ships the real guided-local-search penalty
// mechanism in this module's dependency set). Returns true if it converged
// (no improving move found) before the deadline.
func improve(m *Model, routes [][]int, deadline time.Time) (converged bool) {
	for {
		if time.Now().After(deadline) {
			return false
		}

		if twoOptPass(m, routes, deadline) {
			continue
		}
		if relocatePass(m, routes, deadline) {
			continue
		}
		return !time.Now().After(deadline)
	}
}

// twoOptPass scans every route for a reversal that shortens it, applying
// the first improving move it finds.
func twoOptPass(m *Model, routes [][]int, deadline time.Time) bool {
	for vIdx, seq := range routes {
		if len(seq) < 3 {
			continue
		}
		for i := 0; i < len(seq)-1; i++ {
			if time.Now().After(deadline) {
				return false
			}
			for j := i + 1; j < len(seq); j++ {
				candSeq := reversed(seq, i, j)
				if routeDistance(m, candSeq) >= routeDistance(m, seq) {
					continue
				}
				if !feasibleRoute(m, vIdx, candSeq) {
					continue
				}
				routes[vIdx] = candSeq
				return true
			}
		}
	}
	return false
}

// relocatePass tries moving a single node to a cheaper position, either
// within its own route or into another vehicle's route.
func relocatePass(m *Model, routes [][]int, deadline time.Time) bool {
	for srcV, srcSeq := range routes {
		for srcPos, nodeIdx := range srcSeq {
			if time.Now().After(deadline) {
				return false
			}
			withoutNode := removeAt(srcSeq, srcPos)
			baseCost := routeDistance(m, srcSeq)

			for dstV := range routes {
				dstSeq := routes[dstV]
				if dstV == srcV {
					dstSeq = withoutNode
				}

				for pos := 0; pos <= len(dstSeq); pos++ {
					if dstV == srcV && pos == srcPos {
						continue
					}
					candSeq := insertAt(dstSeq, pos, nodeIdx)
					if !feasibleRoute(m, dstV, candSeq) {
						continue
					}

					newCost := routeDistance(m, candSeq)
					if dstV != srcV {
						newCost += routeDistance(m, withoutNode)
					}
					if newCost >= baseCost {
						continue
					}

					if dstV == srcV {
						routes[srcV] = candSeq
					} else {
						routes[srcV] = withoutNode
						routes[dstV] = candSeq
					}
					return true
				}
			}
		}
	}
	return false
}

func reversed(seq []int, i, j int) []int {
	out := make([]int, len(seq))
	copy(out, seq)
	for l, r := i, j; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
