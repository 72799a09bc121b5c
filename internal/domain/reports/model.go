package reports

import "time"

// Report is one AI-generated team summary for a week.
type Report struct {
	ID         int64
	WeekStart  time.Time
	Summary    string
	Model      string
	TokensUsed int
	CreatedBy  int64 // admin subject who requested the generation
	CreatedAt  time.Time
}
