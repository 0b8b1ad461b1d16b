package pipeline

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"rasdb/internal"
)

// Column order is fixed; downstream consumers index by position.
var flatHeaders = []string{
	"Notice ID", "Administration", "Country", "Station name", "Longitude", "Latitude",
	"Beam name", "Antenna pattern", "Antenna diameter, m", "Elevation minimum, deg",
	"Frequency minimum, MHz", "Frequency maximum, MHz", "VLBI support", "Noise temp, K",
}

// WriteFlatCSV emits one row per (antenna, band) pair with repeat-suppression:
// the first row of each station carries the station-scoped columns, later
// rows of the same station leave them blank. The header is always written.
func WriteFlatCSV(w io.Writer, rows []internal.FlatExportRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(flatHeaders); err != nil {
		return err
	}

	var lastStationID int64
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.NoticeID, 10),
			row.Adm,
			row.Country,
			row.StationName,
			formatFloat(row.Longitude),
			formatFloat(row.Latitude),
			row.BeamName,
			row.PatternName,
			derefFloat(row.Diameter),
			derefFloat(row.MinElevation),
			formatFloat(row.FreqMin),
			formatFloat(row.FreqMax),
			row.VLBI,
			derefFloat(row.NoiseTemp),
		}
		if row.StationID == lastStationID {
			for i := 0; i < 6; i++ {
				record[i] = ""
			}
		}
		lastStationID = row.StationID
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func ExportFlatCSV(rows []internal.FlatExportRow, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := WriteFlatCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func derefFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
