// Package source reads the regulatory filing database the normalization
// engine consumes. The engine only sees the Reader interface; the concrete
// implementation issues parameterized queries against an IFIC-shaped
// sqlite database.
package source

// NoticeRow is one registration record from the filing master table.
type NoticeRow struct {
	NtcID   int64
	NtcType string
	Adm     string
	Ctry    string
	StnName string
	LongDec float64
	LatDec  float64
}

// AntennaRow is one beam entry for a notice. PatternID is absent for
// non-typical antennas; AttchE then names the attachment that documents
// the pattern.
type AntennaRow struct {
	BeamName  string
	PatternID *int64
	AntDiam   *float64
	ElevMin   *float64
	AttchE    *string
}

// GroupRow is one frequency group scoped to (notice, beam).
type GroupRow struct {
	GrpID    int64
	FreqMin  float64
	FreqMax  float64
	VLBICode string
	NoiseT   *float64
}

type Reader interface {
	// Version reports the source database version string and publication date.
	Version() (version string, published string, err error)
	// Notices returns registered notices ordered by administration then
	// station name. That order fixes surrogate id assignment downstream.
	Notices() ([]NoticeRow, error)
	Antennas(ntcID int64) ([]AntennaRow, error)
	FrequencyGroups(ntcID int64, beamName string) ([]GroupRow, error)
	// PatternName resolves an antenna pattern id to its display name, or
	// nil when the pattern table has no entry.
	PatternName(patternID int64) (*string, error)
}
