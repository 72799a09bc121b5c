package usage

import (
	"context"
	"time"
)

// Ledger abstracts the usage log: append consumption, sum a trailing window.
// Backed by Postgres in production (Repo) and by MemLedger in tests.
type Ledger interface {
	// Record appends one usage row with occurred_at = now.
	Record(ctx context.Context, subjectID int64, operation string, units float64) error
	// ConsumedInWindow sums units for rows with occurred_at >= now-window
	// (boundary inclusive). Returns 0 when no rows match.
	ConsumedInWindow(ctx context.Context, subjectID int64, operation string, window time.Duration) (float64, error)
}
