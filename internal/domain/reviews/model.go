package reviews

import "time"

// Review is one member's weekly self-review.
type Review struct {
	ID        int64
	SubjectID int64
	WeekStart time.Time // Monday of the reviewed week, date only
	Wins      string
	Blockers  string
	Mood      int // 1..5
	CreatedAt time.Time
}
