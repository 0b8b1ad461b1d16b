// Package reconcile ranks external candidate sites against normalized
// stations by great-circle distance and drives the sequential
// confirm/no-match workflow.
package reconcile

import (
	"math"
	"sort"

	"rasdb/internal"
)

const (
	earthRadiusKm = 6371.0
	defaultTopK   = 10
)

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

type RankedStation struct {
	Station    internal.Station
	DistanceKm float64
}

type Matcher struct {
	stations []internal.Station
	topK     int
}

func NewMatcher(stations []internal.Station, topK int) *Matcher {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Matcher{stations: stations, topK: topK}
}

// Rank returns the stations nearest to the candidate, ascending by
// distance, capped at top-K. A candidate without coordinates gets an empty
// ranking; callers must not offer Confirm for it.
func (m *Matcher) Rank(candidate internal.CandidateRecord) []RankedStation {
	if candidate.Longitude == nil || candidate.Latitude == nil {
		return nil
	}

	out := make([]RankedStation, 0, len(m.stations))
	for _, st := range m.stations {
		out = append(out, RankedStation{
			Station:    st,
			DistanceKm: Haversine(*candidate.Latitude, *candidate.Longitude, st.Latitude, st.Longitude),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if len(out) > m.topK {
		out = out[:m.topK]
	}
	return out
}
