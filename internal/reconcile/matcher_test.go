package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasdb/internal"
	"rasdb/internal/util"
)

func TestHaversine(t *testing.T) {
	// Paris ↔ London, roughly 344 km.
	d := Haversine(48.8566, 2.3522, 51.5074, -0.1278)
	assert.InDelta(t, 344, d, 5)

	assert.Equal(t, 0.0, Haversine(10, 20, 10, 20))

	ab := Haversine(10, 20, -33, 148)
	ba := Haversine(-33, 148, 10, 20)
	assert.InDelta(t, ab, ba, 1e-9)
}

func TestRankOrderingAndCap(t *testing.T) {
	stations := make([]internal.Station, 0, 15)
	for i := 0; i < 15; i++ {
		stations = append(stations, internal.Station{
			ID:        int64(i + 1),
			Name:      fmt.Sprintf("S%d", i+1),
			Longitude: float64(i),
			Latitude:  0,
		})
	}

	candidate := internal.CandidateRecord{
		Name:      "C",
		Longitude: util.FloatPtr(7.2),
		Latitude:  util.FloatPtr(0),
	}

	ranked := NewMatcher(stations, 10).Rank(candidate)
	require.Len(t, ranked, 10)
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].DistanceKm, ranked[i].DistanceKm)
	}
	// Station at longitude 7 is the nearest to 7.2.
	assert.Equal(t, int64(8), ranked[0].Station.ID)
}

func TestRankWithoutCoordinates(t *testing.T) {
	stations := []internal.Station{{ID: 1, Latitude: 10, Longitude: 20}}
	ranked := NewMatcher(stations, 10).Rank(internal.CandidateRecord{Name: "no coords"})
	assert.Empty(t, ranked)
}

func TestRankFewerStationsThanTopK(t *testing.T) {
	stations := []internal.Station{
		{ID: 1, Latitude: 0, Longitude: 0},
		{ID: 2, Latitude: 1, Longitude: 1},
	}
	candidate := internal.CandidateRecord{Longitude: util.FloatPtr(0), Latitude: util.FloatPtr(0)}
	ranked := NewMatcher(stations, 10).Rank(candidate)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(1), ranked[0].Station.ID)
}
