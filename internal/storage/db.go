package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"rasdb/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS stations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ntc_id INTEGER NOT NULL,
  adm TEXT NOT NULL,
  adm_name TEXT NOT NULL,
  ctry TEXT NOT NULL,
  ctry_name TEXT NOT NULL,
  stn_name TEXT NOT NULL,
  long_dec REAL NOT NULL,
  lat_dec REAL NOT NULL,
  freq_min REAL,
  freq_max REAL,
  registered INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_stations_ntc_id ON stations(ntc_id);

CREATE TABLE IF NOT EXISTS antennas (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  station_id INTEGER NOT NULL,
  beam_name TEXT NOT NULL,
  pattern_name TEXT NOT NULL,
  long_dec REAL NOT NULL,
  lat_dec REAL NOT NULL,
  ant_diam REAL,
  elev_min REAL,
  freq_min REAL,
  freq_max REAL,
  FOREIGN KEY(station_id) REFERENCES stations(id)
);
CREATE INDEX IF NOT EXISTS idx_antennas_station ON antennas(station_id);

CREATE TABLE IF NOT EXISTS frequency_bands (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  antenna_id INTEGER NOT NULL,
  station_id INTEGER NOT NULL,
  freq_min REAL NOT NULL,
  freq_max REAL NOT NULL,
  vlbi TEXT NOT NULL,
  noise_t REAL,
  FOREIGN KEY(antenna_id) REFERENCES antennas(id),
  FOREIGN KEY(station_id) REFERENCES stations(id)
);
CREATE INDEX IF NOT EXISTS idx_bands_antenna ON frequency_bands(antenna_id);
CREATE INDEX IF NOT EXISTS idx_bands_station ON frequency_bands(station_id);

CREATE TABLE IF NOT EXISTS wikidata_sites (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  country TEXT NOT NULL,
  long_dec REAL,
  lat_dec REAL,
  uri TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS station_links (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  wikidata_id INTEGER NOT NULL,
  station_id INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(wikidata_id) REFERENCES wikidata_sites(id),
  FOREIGN KEY(station_id) REFERENCES stations(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveStations replaces the normalized hierarchy with the given graph.
// One writer per run; readers see either the old run or the new one.
func (d *DB) SaveStations(stations []internal.Station) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"frequency_bands", "antennas", "stations"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
	}

	stationStmt, err := tx.Prepare(`
INSERT INTO stations (id, ntc_id, adm, adm_name, ctry, ctry_name, stn_name, long_dec, lat_dec, freq_min, freq_max, registered)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stationStmt.Close()

	antennaStmt, err := tx.Prepare(`
INSERT INTO antennas (id, station_id, beam_name, pattern_name, long_dec, lat_dec, ant_diam, elev_min, freq_min, freq_max)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer antennaStmt.Close()

	bandStmt, err := tx.Prepare(`
INSERT INTO frequency_bands (id, antenna_id, station_id, freq_min, freq_max, vlbi, noise_t)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer bandStmt.Close()

	for _, st := range stations {
		min, max := rangeCols(st.Range)
		registered := 0
		if st.Registered {
			registered = 1
		}
		if _, err := stationStmt.Exec(st.ID, st.NoticeID, st.Adm, st.AdmName, st.Country, st.CountryName, st.Name, st.Longitude, st.Latitude, min, max, registered); err != nil {
			return err
		}
		for _, ant := range st.Antennas {
			aMin, aMax := rangeCols(ant.Range)
			if _, err := antennaStmt.Exec(ant.ID, ant.StationID, ant.BeamName, ant.PatternName, ant.Longitude, ant.Latitude, ant.Diameter, ant.MinElevation, aMin, aMax); err != nil {
				return err
			}
			for _, band := range ant.Bands {
				if _, err := bandStmt.Exec(band.ID, band.AntennaID, band.StationID, band.FreqMin, band.FreqMax, string(band.VLBI), band.NoiseTemp); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

func rangeCols(r *internal.FreqRange) (*float64, *float64) {
	if r == nil {
		return nil, nil
	}
	min, max := r.Min, r.Max
	return &min, &max
}

// ListStations assembles the full hierarchy with three batched queries
// instead of per-row sub-queries.
func (d *DB) ListStations() ([]internal.Station, error) {
	rows, err := d.conn.Query(`
SELECT id, ntc_id, adm, adm_name, ctry, ctry_name, stn_name, long_dec, lat_dec, freq_min, freq_max, registered
FROM stations ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []internal.Station
	index := map[int64]int{}
	for rows.Next() {
		var st internal.Station
		var min, max *float64
		var registered int
		if err := rows.Scan(&st.ID, &st.NoticeID, &st.Adm, &st.AdmName, &st.Country, &st.CountryName, &st.Name, &st.Longitude, &st.Latitude, &min, &max, &registered); err != nil {
			return nil, err
		}
		st.Range = rangeFromCols(min, max)
		st.Registered = registered != 0
		index[st.ID] = len(stations)
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	antRows, err := d.conn.Query(`
SELECT id, station_id, beam_name, pattern_name, long_dec, lat_dec, ant_diam, elev_min, freq_min, freq_max
FROM antennas ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer antRows.Close()

	antIndex := map[int64][2]int{}
	for antRows.Next() {
		var ant internal.Antenna
		var min, max *float64
		if err := antRows.Scan(&ant.ID, &ant.StationID, &ant.BeamName, &ant.PatternName, &ant.Longitude, &ant.Latitude, &ant.Diameter, &ant.MinElevation, &min, &max); err != nil {
			return nil, err
		}
		ant.Range = rangeFromCols(min, max)
		si, ok := index[ant.StationID]
		if !ok {
			continue
		}
		antIndex[ant.ID] = [2]int{si, len(stations[si].Antennas)}
		stations[si].Antennas = append(stations[si].Antennas, ant)
	}
	if err := antRows.Err(); err != nil {
		return nil, err
	}

	bandRows, err := d.conn.Query(`
SELECT id, antenna_id, station_id, freq_min, freq_max, vlbi, noise_t
FROM frequency_bands ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer bandRows.Close()

	for bandRows.Next() {
		var band internal.FrequencyBand
		var vlbi string
		if err := bandRows.Scan(&band.ID, &band.AntennaID, &band.StationID, &band.FreqMin, &band.FreqMax, &vlbi, &band.NoiseTemp); err != nil {
			return nil, err
		}
		band.VLBI = internal.VLBISupport(vlbi)
		pos, ok := antIndex[band.AntennaID]
		if !ok {
			continue
		}
		ant := &stations[pos[0]].Antennas[pos[1]]
		ant.Bands = append(ant.Bands, band)
	}
	if err := bandRows.Err(); err != nil {
		return nil, err
	}

	return stations, nil
}

func rangeFromCols(min, max *float64) *internal.FreqRange {
	if min == nil || max == nil {
		return nil
	}
	return &internal.FreqRange{Min: *min, Max: *max}
}

// FlatExportRows is the single pre-joined fetch behind the delimited
// export: one row per (antenna, band) pair, ordered station → antenna →
// band. Antennas without bands do not appear.
func (d *DB) FlatExportRows() ([]internal.FlatExportRow, error) {
	rows, err := d.conn.Query(`
SELECT
  s.id, s.ntc_id, s.adm, s.ctry, s.stn_name, s.long_dec, s.lat_dec,
  a.beam_name, a.pattern_name, a.ant_diam, a.elev_min,
  b.freq_min, b.freq_max, b.vlbi, b.noise_t
FROM stations s
JOIN antennas a ON a.station_id = s.id
JOIN frequency_bands b ON b.antenna_id = a.id
ORDER BY s.id ASC, a.id ASC, b.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.FlatExportRow
	for rows.Next() {
		var row internal.FlatExportRow
		if err := rows.Scan(
			&row.StationID, &row.NoticeID, &row.Adm, &row.Country, &row.StationName, &row.Longitude, &row.Latitude,
			&row.BeamName, &row.PatternName, &row.Diameter, &row.MinElevation,
			&row.FreqMin, &row.FreqMax, &row.VLBI, &row.NoiseTemp,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// InsertCandidates appends catalog entries in the given order so the
// reconciliation cursor walks them as the external query returned them.
func (d *DB) InsertCandidates(candidates []internal.CandidateRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO wikidata_sites (name, country, long_dec, lat_dec, uri, status)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range candidates {
		status := c.Status
		if status == "" {
			status = internal.LinkPending
		}
		if _, err := stmt.Exec(c.Name, c.Country, c.Longitude, c.Latitude, c.URI, string(status)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCandidatesByStatus(status internal.LinkStatus) ([]internal.CandidateRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, name, country, long_dec, lat_dec, uri, status
FROM wikidata_sites WHERE status = ? ORDER BY id ASC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CandidateRecord
	for rows.Next() {
		var c internal.CandidateRecord
		var st string
		if err := rows.Scan(&c.ID, &c.Name, &c.Country, &c.Longitude, &c.Latitude, &c.URI, &st); err != nil {
			return nil, err
		}
		c.Status = internal.LinkStatus(st)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) UpdateCandidateStatus(id int64, status internal.LinkStatus) error {
	_, err := d.conn.Exec(`UPDATE wikidata_sites SET status = ? WHERE id = ?`, string(status), id)
	return err
}

func (d *DB) InsertLink(candidateID, stationID int64) error {
	_, err := d.conn.Exec(`INSERT INTO station_links (wikidata_id, station_id) VALUES (?, ?)`, candidateID, stationID)
	return err
}

func (d *DB) ListLinks(candidateID int64) ([]internal.LinkRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, wikidata_id, station_id FROM station_links WHERE wikidata_id = ? ORDER BY id ASC`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.LinkRecord
	for rows.Next() {
		var link internal.LinkRecord
		if err := rows.Scan(&link.ID, &link.CandidateID, &link.StationID); err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// CountStations exists for operator-facing summaries.
func (d *DB) CountStations() (int, error) {
	var n int
	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM stations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stations: %w", err)
	}
	return n, nil
}
