package seed

const (
	// coverageEntryCost models the in-memory cost of one coverage point.
	coverageEntryCost = 4
	// seedOverhead models fixed per-entry bookkeeping cost.
	seedOverhead = 100
)

// EstimateSize approximates the in-memory footprint of a seed in bytes.
// The estimate is intentionally rough; it only has to be monotonic and
// comparable across seeds so the cache's byte accounting stays meaningful.
// It runs on every insertion and eviction decision, so it must stay O(1).
func EstimateSize(s *Seed) int {
	return len(s.Input) + len(s.Coverage)*coverageEntryCost + seedOverhead
}
