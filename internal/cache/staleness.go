package cache

import (
	"time"

	"CrashSentinel/internal/model"
)

// TTL is how long a symbol's analysis bundle stays usable. This is the sole
// staleness rule in the system; there is no per-symbol override.
const TTL = time.Hour

// IsValid reports whether the record is still usable at the given instant.
// An absent record, a missing timestamp, or an unparsable timestamp all
// count as stale. Exactly TTL old is stale (strict inequality).
func IsValid(rec *model.AnalysisRecord, now time.Time) bool {
	ts, ok := rec.Time()
	if !ok {
		return false
	}
	return now.Sub(ts) < TTL
}
