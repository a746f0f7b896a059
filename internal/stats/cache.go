package stats

import "context"

// Cache stores computed report payloads for a bounded TTL. Reports run
// aggregate queries over the full expenses table, so serving a recent
// copy is much cheaper than recomputing per request.
type Cache interface {
	// Get unmarshals the cached payload for key into dest. The second
	// return is false on a miss or an expired entry.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key for the cache's TTL.
	Set(ctx context.Context, key string, value any) error
	// Flush drops every report payload. Called after an ingestion run
	// so reports never reflect pre-refresh data.
	Flush(ctx context.Context) error
}

const (
	keyOverview     = "stats:overview"
	keyRegionShare  = "stats:region-share"
	keyAboveAverage = "stats:above-average"
)
