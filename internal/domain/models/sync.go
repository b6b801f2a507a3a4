package models

// Provenance of a served series.
const (
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
	SourceCache     = "cache"
)

// Freshness outcome of a sync.
const (
	FreshnessFresh = "fresh"
	FreshnessStale = "stale"
)

// SyncResult reports what a sync actually did. It replaces any shared
// "last source" state: one result per call, returned synchronously.
type SyncResult struct {
	Symbol    string `json:"symbol"`
	Source    string `json:"source"`
	Freshness string `json:"freshness"`
	LastDate  string `json:"last_date"`
	RowCount  int    `json:"row_count"`
	RowsAdded int    `json:"rows_added"`
}
