package pipeline

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"rasdb/internal/lookup"
	"rasdb/internal/source"
	"rasdb/internal/storage"
)

// End to end: IFIC-shaped source database → normalization → store →
// flattened CSV and per-station document.
func TestSmokeSourceToExports(t *testing.T) {
	tmp := t.TempDir()
	sourcePath := filepath.Join(tmp, "ific.db")
	buildSourceFixture(t, sourcePath)

	reader, err := source.Open(sourcePath)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	version, published, err := reader.Version()
	if err != nil {
		t.Fatal(err)
	}
	if version != "IFIC300" || published != "2026-03-01" {
		t.Fatalf("version=%q published=%q", version, published)
	}

	countries, err := lookup.Read(strings.NewReader("F,France\nAUS,Australia\n"))
	if err != nil {
		t.Fatal(err)
	}

	result, err := NewNormalizer(reader, countries, nil).Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("notice errors: %v", result.Errors)
	}
	if len(result.Stations) != 2 {
		t.Fatalf("stations=%d", len(result.Stations))
	}

	db, err := storage.Open(filepath.Join(tmp, "rasdb.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.SaveStations(result.Stations); err != nil {
		t.Fatal(err)
	}

	rows, err := db.FlatExportRows()
	if err != nil {
		t.Fatal(err)
	}
	// Notices order by adm: AUS first. Parkes has 1 band; Nancay A1 has 2
	// bands and A2 none, so A2 contributes no rows.
	if len(rows) != 3 {
		t.Fatalf("flat rows=%d", len(rows))
	}
	for _, row := range rows {
		if row.BeamName == "A2" {
			t.Fatalf("zero-band antenna leaked into the flat export: %+v", row)
		}
	}

	csvPath := filepath.Join(tmp, "out", "full.csv")
	if err := ExportFlatCSV(rows, csvPath); err != nil {
		t.Fatal(err)
	}

	xlsxPath := filepath.Join(tmp, "out", "full.xlsx")
	if err := ExportStationsToXLSX(result.Stations, version, published, xlsxPath); err != nil {
		t.Fatal(err)
	}
}

func buildSourceFixture(t *testing.T, path string) {
	t.Helper()
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	statements := []string{
		`CREATE TABLE srs_ooak (d_create TEXT, comment TEXT)`,
		`CREATE TABLE com_el (ntc_id INTEGER, ntc_type TEXT, adm TEXT, ctry TEXT, stn_name TEXT, long_dec REAL, lat_dec REAL)`,
		`CREATE TABLE e_stn (ntc_id INTEGER, elev_min REAL)`,
		`CREATE TABLE e_ant (ntc_id INTEGER, beam_name TEXT, pattern_id INTEGER, ant_diam REAL, attch_e TEXT)`,
		`CREATE TABLE grp (ntc_id INTEGER, beam_name TEXT, grp_id INTEGER, freq_min REAL, freq_max REAL, vlbi_type TEXT, noise_t REAL)`,
		`CREATE TABLE ant_type (pattern_id INTEGER, pattern TEXT)`,

		`INSERT INTO srs_ooak VALUES ('2026-03-01', 'IFIC300 regular edition')`,

		`INSERT INTO com_el VALUES (101, 'R', 'F', 'F', 'Nancay', 2.2, 47.4)`,
		`INSERT INTO com_el VALUES (202, 'R', 'AUS', 'AUS', 'Parkes', 148.3, -33.0)`,
		`INSERT INTO com_el VALUES (303, 'T', 'F', 'F', 'NotRegistered', 0, 0)`,

		`INSERT INTO e_stn VALUES (101, 5.0)`,
		`INSERT INTO e_stn VALUES (202, 10.0)`,

		`INSERT INTO e_ant VALUES (101, 'A1', 7, 25.0, NULL)`,
		`INSERT INTO e_ant VALUES (101, 'A2', NULL, NULL, '2')`,
		`INSERT INTO e_ant VALUES (202, 'B1', 7, 64.0, NULL)`,

		`INSERT INTO grp VALUES (101, 'A1', 1, 100, 200, 'V', 30)`,
		`INSERT INTO grp VALUES (101, 'A1', 2, 150, 300, 'S', NULL)`,
		`INSERT INTO grp VALUES (202, 'B1', 1, 700, 900, 'X', 25)`,

		`INSERT INTO ant_type VALUES (7, 'REC-AP30')`,
	}
	for _, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("fixture %q: %v", stmt, err)
		}
	}
}
