package source

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteReader reads a filing database converted to sqlite. Table and
// column names follow the IFIC layout: com_el (notices), e_ant (beams),
// e_stn (site geometry), grp (frequency groups), ant_type (pattern names),
// srs_ooak (publication metadata).
type SQLiteReader struct {
	conn *sql.DB
}

func Open(path string) (*SQLiteReader, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("source database %s: %w", path, err)
	}
	return &SQLiteReader{conn: conn}, nil
}

func (r *SQLiteReader) Close() error {
	return r.conn.Close()
}

func (r *SQLiteReader) Version() (string, string, error) {
	var published, comment string
	err := r.conn.QueryRow(`SELECT d_create, comment FROM srs_ooak`).Scan(&published, &comment)
	if err != nil {
		return "", "", fmt.Errorf("source version: %w", err)
	}
	version := comment
	if len(version) > 7 {
		version = version[:7]
	}
	return version, published, nil
}

func (r *SQLiteReader) Notices() ([]NoticeRow, error) {
	rows, err := r.conn.Query(`
SELECT ntc_id, ntc_type, adm, ctry, stn_name, long_dec, lat_dec
FROM com_el
WHERE ntc_type = 'R'
ORDER BY adm ASC, stn_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NoticeRow
	for rows.Next() {
		var row NoticeRow
		if err := rows.Scan(&row.NtcID, &row.NtcType, &row.Adm, &row.Ctry, &row.StnName, &row.LongDec, &row.LatDec); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteReader) Antennas(ntcID int64) ([]AntennaRow, error) {
	rows, err := r.conn.Query(`
SELECT a.beam_name, a.pattern_id, a.ant_diam, s.elev_min, a.attch_e
FROM e_ant a
LEFT JOIN e_stn s ON s.ntc_id = a.ntc_id
WHERE a.ntc_id = ?
ORDER BY a.beam_name ASC`, ntcID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AntennaRow
	for rows.Next() {
		var row AntennaRow
		if err := rows.Scan(&row.BeamName, &row.PatternID, &row.AntDiam, &row.ElevMin, &row.AttchE); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteReader) FrequencyGroups(ntcID int64, beamName string) ([]GroupRow, error) {
	rows, err := r.conn.Query(`
SELECT grp_id, freq_min, freq_max, COALESCE(vlbi_type, ''), noise_t
FROM grp
WHERE ntc_id = ? AND beam_name = ?
ORDER BY grp_id ASC`, ntcID, beamName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GroupRow
	for rows.Next() {
		var row GroupRow
		if err := rows.Scan(&row.GrpID, &row.FreqMin, &row.FreqMax, &row.VLBICode, &row.NoiseT); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteReader) PatternName(patternID int64) (*string, error) {
	var name string
	err := r.conn.QueryRow(`SELECT pattern FROM ant_type WHERE pattern_id = ?`, patternID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &name, nil
}
