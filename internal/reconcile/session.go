package reconcile

import (
	"errors"
	"fmt"

	"rasdb/internal"
	"rasdb/internal/storage"
)

var (
	// ErrNoCoordinates rejects Confirm for a candidate with no coordinates;
	// the operator surface must only offer No Match for it.
	ErrNoCoordinates = errors.New("candidate has no coordinates")
	ErrFinished      = errors.New("reconciliation pass finished")
)

// Session is one pass over all pending candidates in ingestion order. The
// cursor only moves forward and is not persisted: a restarted process
// re-presents every candidate still pending.
type Session struct {
	db         *storage.DB
	matcher    *Matcher
	candidates []internal.CandidateRecord
	cursor     int
}

func NewSession(db *storage.DB, matcher *Matcher) (*Session, error) {
	candidates, err := db.ListCandidatesByStatus(internal.LinkPending)
	if err != nil {
		return nil, fmt.Errorf("load pending candidates: %w", err)
	}
	return &Session{db: db, matcher: matcher, candidates: candidates}, nil
}

func (s *Session) Done() bool {
	return s.cursor >= len(s.candidates)
}

func (s *Session) Remaining() int {
	return len(s.candidates) - s.cursor
}

// Current returns the presented candidate and its ranking. ok is false once
// the pass is finished.
func (s *Session) Current() (internal.CandidateRecord, []RankedStation, bool) {
	if s.Done() {
		return internal.CandidateRecord{}, nil, false
	}
	candidate := s.candidates[s.cursor]
	return candidate, s.matcher.Rank(candidate), true
}

// Confirm links the candidate to each checked station and marks it
// confirmed. With zero checked stations the candidate is marked no-match
// instead and no links are written. Either way the cursor advances.
func (s *Session) Confirm(stationIDs []int64) error {
	if s.Done() {
		return ErrFinished
	}
	if len(stationIDs) == 0 {
		return s.NoMatch()
	}

	candidate := s.candidates[s.cursor]
	if candidate.Longitude == nil || candidate.Latitude == nil {
		return ErrNoCoordinates
	}

	for _, stationID := range stationIDs {
		if err := s.db.InsertLink(candidate.ID, stationID); err != nil {
			return fmt.Errorf("link candidate %d to station %d: %w", candidate.ID, stationID, err)
		}
	}
	if err := s.db.UpdateCandidateStatus(candidate.ID, internal.LinkConfirmed); err != nil {
		return err
	}

	s.cursor++
	return nil
}

// NoMatch marks the presented candidate as having no counterpart and
// advances the cursor.
func (s *Session) NoMatch() error {
	if s.Done() {
		return ErrFinished
	}
	candidate := s.candidates[s.cursor]
	if err := s.db.UpdateCandidateStatus(candidate.ID, internal.LinkNoMatch); err != nil {
		return err
	}
	s.cursor++
	return nil
}
