package subscribers

import "time"

// Subscription is one registered browser/device push endpoint for a subject.
// A subject can hold several (one per device). p256dh/auth are the
// subscriber's encryption keys; stored for the day payload encryption lands.
type Subscription struct {
	ID        int64
	SubjectID int64
	Endpoint  string
	P256dh    string
	Auth      string
	CreatedAt time.Time
}
