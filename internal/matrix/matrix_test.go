package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters_Symmetry(t *testing.T) {
	a := Point{Latitude: 25.0330, Longitude: 121.5654}
	b := Point{Latitude: 25.0478, Longitude: 121.5170}

	assert.Equal(t, HaversineMeters(a, b), HaversineMeters(b, a))
}

func TestHaversineMeters_SamePointIsZero(t *testing.T) {
	a := Point{Latitude: 25.0330, Longitude: 121.5654}
	assert.Zero(t, HaversineMeters(a, a))
}

func TestHaversineMeters_KnownDistance(t *testing.T) {
	// Taipei 101 area to nearby point, roughly 5-6km apart.
	depot := Point{Latitude: 25.0330, Longitude: 121.5654}
	shipment := Point{Latitude: 25.0478, Longitude: 121.5170}

	d := HaversineMeters(depot, shipment)
	assert.InDelta(t, 5100, d, 600)
}

func TestBuild_Symmetric(t *testing.T) {
	nodes := []Point{
		{Latitude: 25.0330, Longitude: 121.5654},
		{Latitude: 25.0478, Longitude: 121.5170},
		{Latitude: 25.0200, Longitude: 121.5400},
	}

	m := Build(nodes, 30.0)

	for i := range nodes {
		assert.Zero(t, m.Distance[i][i])
		assert.Zero(t, m.Time[i][i])
		for j := range nodes {
			assert.Equal(t, m.Distance[i][j], m.Distance[j][i])
			assert.Equal(t, m.Time[i][j], m.Time[j][i])
		}
	}
}

func TestBuild_TravelTimeDerivedFromSpeed(t *testing.T) {
	nodes := []Point{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 1}, // ~111.19 km at the equator
	}

	m := Build(nodes, 60.0) // 1 km/min

	expectedMinutes := m.Distance[0][1] / 1000
	assert.InDelta(t, expectedMinutes, m.Time[0][1], 1)
}
