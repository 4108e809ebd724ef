// Package matrix builds the haversine distance and travel-time grids that
// feed the constraint-model builder (§4.3a). Node 0 is always the depot;
// nodes 1..N-1 are shipments in the order supplied.
package matrix

import "math"

const earthRadiusMeters = 6371000.0

// Point is a WGS-84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Matrices holds the distance (meters) and travel-time (minutes) grids for
// a set of nodes, indexed depot-first.
type Matrices struct {
	Distance [][]int // meters
	Time     [][]int // minutes
}

// HaversineMeters returns the great-circle distance between a and b in
// meters, using the WGS-84 mean earth radius of 6371 km (§4.3a).
func HaversineMeters(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// Build constructs the symmetric distance/time matrices for nodes, using
// speedKMH to derive travel time: T[i][j] = round(D[i][j] / (speed_kmh *
// 1000 / 60)) minutes (§4.3a).
func Build(nodes []Point, speedKMH float64) Matrices {
	n := len(nodes)
	distance := make([][]int, n)
	timeMin := make([][]int, n)

	metersPerMinute := speedKMH * 1000 / 60

	for i := range distance {
		distance[i] = make([]int, n)
		timeMin[i] = make([]int, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := HaversineMeters(nodes[i], nodes[j])
			distance[i][j] = int(math.Round(d))
			distance[j][i] = distance[i][j]

			var t int
			if metersPerMinute > 0 {
				t = int(math.Round(d / metersPerMinute))
			}
			timeMin[i][j] = t
			timeMin[j][i] = t
		}
	}

	return Matrices{Distance: distance, Time: timeMin}
}
