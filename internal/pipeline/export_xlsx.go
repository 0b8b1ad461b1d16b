package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"rasdb/internal"
	"rasdb/internal/util"
)

// ExportStationsToXLSX writes the styled per-station document: one section
// per station in hierarchy order, a fixed set of labeled fields, and one
// subsection per antenna. Missing values render "N/A" so every section has
// the same shape. Aggregated extents come from the hierarchy as stored;
// nothing is recomputed here.
func ExportStationsToXLSX(stations []internal.Station, version, published, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	stationStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	headingStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Italic: true}})
	_ = f.SetColWidth(sheet, "A", "A", 42)
	_ = f.SetColWidth(sheet, "B", "B", 60)

	w := &sheetWriter{f: f, sheet: sheet}
	w.heading(titleStyle, "The list of radio astronomy stations")
	if version != "" {
		w.field("Source database", fmt.Sprintf("%s, published %s", version, published))
	}
	w.blank()

	for i, st := range stations {
		w.heading(stationStyle, fmt.Sprintf("Station %q", st.Name))
		w.heading(headingStyle, "Overview")
		w.field("Station number", i+1)
		w.field("Notice ID", st.NoticeID)
		w.field("Responsible administration", fmt.Sprintf("%s (%s)", st.AdmName, st.Adm))
		w.field("Country/region location", fmt.Sprintf("%s (%s)", st.CountryName, st.Country))
		w.field("Station longitude [deg]", st.Longitude)
		w.field("Station latitude [deg]", st.Latitude)
		w.field("Registered at source", st.Registered)
		w.rangeFields("station", st.Range)

		w.heading(headingStyle, "Antenna information")
		for j, ant := range st.Antennas {
			w.heading(headingStyle, fmt.Sprintf("Antenna #%d", j+1))
			w.field("Beam name", ant.BeamName)
			w.field("Antenna pattern", ant.PatternName)
			w.field("Antenna diameter [m]", util.FloatOrNA(ant.Diameter))
			w.field("Minimum elevation [deg]", util.FloatOrNA(ant.MinElevation))
			w.rangeFields("antenna", ant.Range)
			for k, band := range ant.Bands {
				w.field(fmt.Sprintf("Band #%d [MHz]", k+1), fmt.Sprintf("%g to %g", band.FreqMin, band.FreqMax))
				w.field(fmt.Sprintf("Band #%d VLBI support", k+1), string(band.VLBI))
				w.field(fmt.Sprintf("Band #%d noise temperature [K]", k+1), util.FloatOrNA(band.NoiseTemp))
			}
		}
		w.blank()
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func (w *sheetWriter) heading(style int, text string) {
	w.row++
	cell, _ := excelize.CoordinatesToCellName(1, w.row)
	_ = w.f.SetCellValue(w.sheet, cell, text)
	_ = w.f.SetCellStyle(w.sheet, cell, cell, style)
}

func (w *sheetWriter) field(label string, value any) {
	w.row++
	labelCell, _ := excelize.CoordinatesToCellName(1, w.row)
	valueCell, _ := excelize.CoordinatesToCellName(2, w.row)
	_ = w.f.SetCellValue(w.sheet, labelCell, label)
	_ = w.f.SetCellValue(w.sheet, valueCell, value)
}

func (w *sheetWriter) rangeFields(scope string, r *internal.FreqRange) {
	minLabel := fmt.Sprintf("Minimum %s frequency [MHz]", scope)
	maxLabel := fmt.Sprintf("Maximum %s frequency [MHz]", scope)
	if r == nil {
		w.field(minLabel, "N/A")
		w.field(maxLabel, "N/A")
		return
	}
	w.field(minLabel, r.Min)
	w.field(maxLabel, r.Max)
}

func (w *sheetWriter) blank() {
	w.row++
}
