package reconcile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rasdb/internal"
	"rasdb/internal/storage"
	"rasdb/internal/util"
)

func openStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "rasdb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedStations(t *testing.T, db *storage.DB) []internal.Station {
	t.Helper()
	stations := []internal.Station{
		{ID: 1, NoticeID: 11, Name: "Near", Longitude: 20, Latitude: 10},
		{ID: 2, NoticeID: 22, Name: "Far", Longitude: 120, Latitude: -40},
	}
	require.NoError(t, db.SaveStations(stations))
	return stations
}

func TestSessionConfirmCreatesLinks(t *testing.T) {
	db := openStore(t)
	stations := seedStations(t, db)

	require.NoError(t, db.InsertCandidates([]internal.CandidateRecord{
		{Name: "C1", Longitude: util.FloatPtr(20.1), Latitude: util.FloatPtr(10.1), URI: "http://www.wikidata.org/entity/Q1"},
	}))

	session, err := NewSession(db, NewMatcher(stations, 10))
	require.NoError(t, err)
	require.False(t, session.Done())

	candidate, ranked, ok := session.Current()
	require.True(t, ok)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Near", ranked[0].Station.Name)

	require.NoError(t, session.Confirm([]int64{ranked[0].Station.ID, ranked[1].Station.ID}))
	assert.True(t, session.Done())

	links, err := db.ListLinks(candidate.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	confirmed, err := db.ListCandidatesByStatus(internal.LinkConfirmed)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, candidate.ID, confirmed[0].ID)
}

func TestSessionConfirmWithNothingCheckedIsNoMatch(t *testing.T) {
	db := openStore(t)
	stations := seedStations(t, db)

	require.NoError(t, db.InsertCandidates([]internal.CandidateRecord{
		{Name: "C1", Longitude: util.FloatPtr(0), Latitude: util.FloatPtr(0), URI: "u"},
	}))

	session, err := NewSession(db, NewMatcher(stations, 10))
	require.NoError(t, err)
	candidate, _, _ := session.Current()

	require.NoError(t, session.Confirm(nil))
	assert.True(t, session.Done())

	links, err := db.ListLinks(candidate.ID)
	require.NoError(t, err)
	assert.Empty(t, links)

	noMatch, err := db.ListCandidatesByStatus(internal.LinkNoMatch)
	require.NoError(t, err)
	assert.Len(t, noMatch, 1)
}

func TestSessionConfirmRequiresCoordinates(t *testing.T) {
	db := openStore(t)
	stations := seedStations(t, db)

	require.NoError(t, db.InsertCandidates([]internal.CandidateRecord{
		{Name: "no coords", URI: "u"},
	}))

	session, err := NewSession(db, NewMatcher(stations, 10))
	require.NoError(t, err)

	_, ranked, ok := session.Current()
	require.True(t, ok)
	assert.Empty(t, ranked)

	err = session.Confirm([]int64{1})
	assert.ErrorIs(t, err, ErrNoCoordinates)
	assert.False(t, session.Done(), "a rejected confirm must not advance the cursor")

	require.NoError(t, session.NoMatch())
	assert.True(t, session.Done())
}

func TestSessionCursorIsForwardOnly(t *testing.T) {
	db := openStore(t)
	stations := seedStations(t, db)

	require.NoError(t, db.InsertCandidates([]internal.CandidateRecord{
		{Name: "first", Longitude: util.FloatPtr(1), Latitude: util.FloatPtr(1), URI: "u1"},
		{Name: "second", Longitude: util.FloatPtr(2), Latitude: util.FloatPtr(2), URI: "u2"},
	}))

	session, err := NewSession(db, NewMatcher(stations, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, session.Remaining())

	first, _, _ := session.Current()
	assert.Equal(t, "first", first.Name)
	require.NoError(t, session.NoMatch())

	second, _, _ := session.Current()
	assert.Equal(t, "second", second.Name)
	require.NoError(t, session.NoMatch())

	assert.True(t, session.Done())
	assert.ErrorIs(t, session.NoMatch(), ErrFinished)
	assert.ErrorIs(t, session.Confirm([]int64{1}), ErrFinished)
}

func TestSessionRestartRepresentsPending(t *testing.T) {
	db := openStore(t)
	stations := seedStations(t, db)

	require.NoError(t, db.InsertCandidates([]internal.CandidateRecord{
		{Name: "first", Longitude: util.FloatPtr(1), Latitude: util.FloatPtr(1), URI: "u1"},
		{Name: "second", Longitude: util.FloatPtr(2), Latitude: util.FloatPtr(2), URI: "u2"},
	}))

	session, err := NewSession(db, NewMatcher(stations, 10))
	require.NoError(t, err)
	require.NoError(t, session.NoMatch())

	// A fresh session sees only what is still pending.
	restarted, err := NewSession(db, NewMatcher(stations, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, restarted.Remaining())
	candidate, _, _ := restarted.Current()
	assert.Equal(t, "second", candidate.Name)
}
