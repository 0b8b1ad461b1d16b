package pipeline

import (
	"bytes"
	"encoding/csv"
	"testing"

	"rasdb/internal"
	"rasdb/internal/util"
)

func flatRow(stationID int64, name, beam string, freqMin, freqMax float64) internal.FlatExportRow {
	return internal.FlatExportRow{
		StationID:   stationID,
		NoticeID:    stationID * 100,
		Adm:         "F",
		Country:     "F",
		StationName: name,
		Longitude:   2.2,
		Latitude:    47.4,
		BeamName:    beam,
		PatternName: "P",
		FreqMin:     freqMin,
		FreqMax:     freqMax,
		VLBI:        "supported",
	}
}

func TestWriteFlatCSVRepeatSuppression(t *testing.T) {
	rows := []internal.FlatExportRow{
		flatRow(1, "Nancay", "A1", 100, 200),
		flatRow(1, "Nancay", "A1", 150, 300),
		flatRow(1, "Nancay", "A2", 400, 500),
		flatRow(2, "Parkes", "B1", 700, 900),
	}

	var buf bytes.Buffer
	if err := WriteFlatCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 5 {
		t.Fatalf("records=%d", len(records))
	}

	// Exactly one row per station carries the station-scoped columns.
	if records[1][3] != "Nancay" {
		t.Fatalf("first station row: %v", records[1])
	}
	for _, i := range []int{2, 3} {
		for col := 0; col < 6; col++ {
			if records[i][col] != "" {
				t.Fatalf("row %d col %d should be blank, got %q", i, col, records[i][col])
			}
		}
	}
	if records[2][6] != "A1" || records[3][6] != "A2" {
		t.Fatalf("band-scoped columns must stay populated: %v / %v", records[2], records[3])
	}
	if records[4][3] != "Parkes" {
		t.Fatalf("new station must carry its columns: %v", records[4])
	}
}

func TestWriteFlatCSVHeaderOnEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFlatCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("want header only, got %d records", len(records))
	}
	if records[0][0] != "Notice ID" || len(records[0]) != 14 {
		t.Fatalf("header=%v", records[0])
	}
}

func TestWriteFlatCSVNullableColumns(t *testing.T) {
	row := flatRow(1, "S", "B", 10, 20)
	row.Diameter = util.FloatPtr(25)

	var buf bytes.Buffer
	if err := WriteFlatCSV(&buf, []internal.FlatExportRow{row}); err != nil {
		t.Fatal(err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if records[1][8] != "25" {
		t.Fatalf("diameter=%q", records[1][8])
	}
	if records[1][9] != "" || records[1][13] != "" {
		t.Fatalf("nil numerics should be blank: %v", records[1])
	}
}
