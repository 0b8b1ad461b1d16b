package internal

// VLBISupport is the tri-state capability flag carried by each frequency
// band. The source encodes it as a single character: 'V' for supported,
// 'S' for unsupported, anything else is unknown.
type VLBISupport string

const (
	VLBISupported   VLBISupport = "supported"
	VLBIUnsupported VLBISupport = "unsupported"
	VLBIUnknown     VLBISupport = "unknown"
)

func VLBIFromCode(code string) VLBISupport {
	switch code {
	case "V":
		return VLBISupported
	case "S":
		return VLBIUnsupported
	default:
		return VLBIUnknown
	}
}

// FreqRange is an aggregated [min, max] frequency extent in MHz. A nil
// *FreqRange means the extent is absent (no bands anywhere below it).
type FreqRange struct {
	Min float64
	Max float64
}

// Union widens r to cover other. Either side may be nil.
func (r *FreqRange) Union(other *FreqRange) *FreqRange {
	if other == nil {
		return r
	}
	if r == nil {
		cp := *other
		return &cp
	}
	out := *r
	if other.Min < out.Min {
		out.Min = other.Min
	}
	if other.Max > out.Max {
		out.Max = other.Max
	}
	return &out
}

type Station struct {
	ID          int64
	NoticeID    int64
	Adm         string
	AdmName     string
	Country     string
	CountryName string
	Name        string
	Longitude   float64
	Latitude    float64
	Range       *FreqRange
	Registered  bool
	Antennas    []Antenna
}

// Antenna coordinates are copied from the owning station at creation time,
// not referenced through it.
type Antenna struct {
	ID           int64
	StationID    int64
	BeamName     string
	PatternName  string
	Longitude    float64
	Latitude     float64
	Diameter     *float64
	MinElevation *float64
	Range        *FreqRange
	Bands        []FrequencyBand
}

// FrequencyBand carries a denormalized StationID so flattened queries can
// join without going through the antenna.
type FrequencyBand struct {
	ID        int64
	AntennaID int64
	StationID int64
	FreqMin   float64
	FreqMax   float64
	VLBI      VLBISupport
	NoiseTemp *float64
}

type LinkStatus string

const (
	LinkPending   LinkStatus = "PENDING"
	LinkConfirmed LinkStatus = "CONFIRMED"
	LinkNoMatch   LinkStatus = "NO_MATCH"
)

// CandidateRecord is one externally sourced site awaiting reconciliation.
// Coordinates are absent when the source had no point literal.
type CandidateRecord struct {
	ID        int64
	Name      string
	Country   string
	Longitude *float64
	Latitude  *float64
	URI       string
	Status    LinkStatus
}

// LinkRecord is a confirmed candidate→station association. Append-only.
type LinkRecord struct {
	ID          int64
	CandidateID int64
	StationID   int64
}

// FlatExportRow is one (antenna, band) pair from the pre-joined flat query.
// StationID groups rows for repeat-suppression in the CSV writer.
type FlatExportRow struct {
	StationID    int64
	NoticeID     int64
	Adm          string
	Country      string
	StationName  string
	Longitude    float64
	Latitude     float64
	BeamName     string
	PatternName  string
	Diameter     *float64
	MinElevation *float64
	FreqMin      float64
	FreqMax      float64
	VLBI         string
	NoiseTemp    *float64
}
