package wikidata

import (
	"context"
	"time"

	"rasdb/internal/config"
	"rasdb/internal/storage"
)

// SyncService loads candidate sites into the store as pending
// reconciliation subjects. Ingestion is best-effort enrichment; a failure
// here never blocks normalization or export.
type SyncService struct {
	db     *storage.DB
	client *Client
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg)}
}

func (s *SyncService) Ingest(ctx context.Context) (int, error) {
	sites, err := s.client.FetchSites(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.db.InsertCandidates(sites); err != nil {
		return 0, err
	}
	_ = s.db.SetMetadata("wikidata.last_sync", time.Now().UTC().Format(time.RFC3339))
	return len(sites), nil
}
