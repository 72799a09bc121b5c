package usage

import "time"

// Operation keys metered by the limiter.
const (
	OpAIReport     = "ai-report"
	OpReviewSubmit = "review-submit"
)

// Record is one row of the append-only usage log. Rows are only ever
// inserted and summed; nothing in the service mutates or deletes them.
type Record struct {
	ID         int64
	SubjectID  int64
	Operation  string
	Units      float64 // tokens for AI calls, 1 for counted operations
	OccurredAt time.Time
}
