package pipeline

import (
	"fmt"
	"log/slog"

	"rasdb/internal"
	"rasdb/internal/lookup"
	"rasdb/internal/source"
)

// NoticeError records a notice whose sub-entity rows could not be fetched.
// The rest of the run is unaffected.
type NoticeError struct {
	NtcID   int64
	StnName string
	Err     error
}

func (e NoticeError) Error() string {
	return fmt.Sprintf("notice %d (%s): %v", e.NtcID, e.StnName, e.Err)
}

type Result struct {
	Stations []internal.Station
	Errors   []NoticeError
}

// Normalizer builds the Station → Antenna → FrequencyBand hierarchy from
// source notice rows, assigning surrogate ids and the derived frequency
// extents in a single pass.
type Normalizer struct {
	src       source.Reader
	countries *lookup.Countries
	log       *slog.Logger

	// Progress, when set, is called after each notice for operator-facing
	// progress reporting.
	Progress func(done, total int)

	nextStationID int64
	nextAntennaID int64
	nextBandID    int64
}

func NewNormalizer(src source.Reader, countries *lookup.Countries, log *slog.Logger) *Normalizer {
	if countries == nil {
		countries = lookup.Empty()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{
		src:           src,
		countries:     countries,
		log:           log,
		nextStationID: 1,
		nextAntennaID: 1,
		nextBandID:    1,
	}
}

// Run normalizes every registered notice. A row-fetch failure aborts only
// the notice it happened in; prior and later stations stay valid.
func (n *Normalizer) Run() (Result, error) {
	notices, err := n.src.Notices()
	if err != nil {
		return Result{}, fmt.Errorf("fetch notices: %w", err)
	}

	result := Result{Stations: make([]internal.Station, 0, len(notices))}
	for i, notice := range notices {
		station, err := n.normalizeNotice(notice)
		if err != nil {
			n.log.Warn("notice skipped", "ntc_id", notice.NtcID, "station", notice.StnName, "error", err)
			result.Errors = append(result.Errors, NoticeError{NtcID: notice.NtcID, StnName: notice.StnName, Err: err})
		} else {
			result.Stations = append(result.Stations, station)
		}
		if n.Progress != nil {
			n.Progress(i+1, len(notices))
		}
	}

	n.log.Info("normalization complete", "stations", len(result.Stations), "skipped", len(result.Errors))
	return result, nil
}

func (n *Normalizer) normalizeNotice(notice source.NoticeRow) (internal.Station, error) {
	// Restore the allocators if this notice fails so ids stay contiguous.
	savedStation, savedAntenna, savedBand := n.nextStationID, n.nextAntennaID, n.nextBandID

	station := internal.Station{
		ID:          n.allocStationID(),
		NoticeID:    notice.NtcID,
		Adm:         notice.Adm,
		AdmName:     n.countries.Name(notice.Adm),
		Country:     notice.Ctry,
		CountryName: n.countries.Name(notice.Ctry),
		Name:        notice.StnName,
		Longitude:   notice.LongDec,
		Latitude:    notice.LatDec,
		Registered:  notice.NtcType == "R",
	}

	antennaRows, err := n.src.Antennas(notice.NtcID)
	if err != nil {
		n.nextStationID, n.nextAntennaID, n.nextBandID = savedStation, savedAntenna, savedBand
		return internal.Station{}, fmt.Errorf("fetch antennas: %w", err)
	}

	for _, row := range antennaRows {
		antenna, err := n.normalizeAntenna(station, notice.NtcID, row)
		if err != nil {
			n.nextStationID, n.nextAntennaID, n.nextBandID = savedStation, savedAntenna, savedBand
			return internal.Station{}, err
		}
		station.Antennas = append(station.Antennas, antenna)
		// Antennas with no bands have no range and drop out of the union.
		station.Range = station.Range.Union(antenna.Range)
	}

	return station, nil
}

func (n *Normalizer) normalizeAntenna(station internal.Station, ntcID int64, row source.AntennaRow) (internal.Antenna, error) {
	patternName, err := n.resolvePattern(row)
	if err != nil {
		return internal.Antenna{}, fmt.Errorf("antenna %q: resolve pattern: %w", row.BeamName, err)
	}

	antenna := internal.Antenna{
		ID:           n.allocAntennaID(),
		StationID:    station.ID,
		BeamName:     row.BeamName,
		PatternName:  patternName,
		Longitude:    station.Longitude,
		Latitude:     station.Latitude,
		Diameter:     row.AntDiam,
		MinElevation: row.ElevMin,
	}

	groups, err := n.src.FrequencyGroups(ntcID, row.BeamName)
	if err != nil {
		return internal.Antenna{}, fmt.Errorf("antenna %q: fetch frequency groups: %w", row.BeamName, err)
	}

	for _, group := range groups {
		band := internal.FrequencyBand{
			ID:        n.allocBandID(),
			AntennaID: antenna.ID,
			StationID: station.ID,
			FreqMin:   group.FreqMin,
			FreqMax:   group.FreqMax,
			VLBI:      internal.VLBIFromCode(group.VLBICode),
			NoiseTemp: group.NoiseT,
		}
		antenna.Bands = append(antenna.Bands, band)
	}

	// Aggregating over zero bands would have no defined extent; leave it
	// absent instead of raising.
	if len(antenna.Bands) > 0 {
		extent := internal.FreqRange{Min: antenna.Bands[0].FreqMin, Max: antenna.Bands[0].FreqMax}
		for _, band := range antenna.Bands[1:] {
			if band.FreqMin < extent.Min {
				extent.Min = band.FreqMin
			}
			if band.FreqMax > extent.Max {
				extent.Max = band.FreqMax
			}
		}
		antenna.Range = &extent
	}

	return antenna, nil
}

// resolvePattern performs the single explicit pattern lookup. Antennas
// without a usable pattern entry get the non-typical fallback naming the
// attachment that documents them.
func (n *Normalizer) resolvePattern(row source.AntennaRow) (string, error) {
	if row.PatternID != nil {
		name, err := n.src.PatternName(*row.PatternID)
		if err != nil {
			return "", err
		}
		if name != nil {
			return *name, nil
		}
	}

	attch := "N/A"
	if row.AttchE != nil {
		attch = *row.AttchE
	}
	if row.AntDiam != nil {
		return fmt.Sprintf("NonTypical, submitted diameter is %g meters, see attachment %s to the relevant IFIC for details.", *row.AntDiam, attch), nil
	}
	return fmt.Sprintf("NonTypical, see attachment %s to the relevant IFIC for details.", attch), nil
}

func (n *Normalizer) allocStationID() int64 {
	id := n.nextStationID
	n.nextStationID++
	return id
}

func (n *Normalizer) allocAntennaID() int64 {
	id := n.nextAntennaID
	n.nextAntennaID++
	return id
}

func (n *Normalizer) allocBandID() int64 {
	id := n.nextBandID
	n.nextBandID++
	return id
}
