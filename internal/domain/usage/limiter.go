package usage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrQuotaExceeded = errors.New("usage: quota exceeded")

// Rule is one quota pool: ceiling units over a trailing window.
type Rule struct {
	Operation string
	Ceiling   float64
	Window    time.Duration
}

// DefaultRules mirror the product's fixed ceilings.
func DefaultRules() []Rule {
	return []Rule{
		{Operation: OpAIReport, Ceiling: 1000, Window: 2 * time.Hour},
		{Operation: OpReviewSubmit, Ceiling: 5, Window: 24 * time.Hour},
	}
}

// QuotaError carries enough detail for a "used X of Y, resets in Z" message.
type QuotaError struct {
	Operation string
	Used      float64
	Ceiling   float64
	ResetIn   time.Duration
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("usage: %s quota exceeded: used %.0f of %.0f, resets in %s",
		e.Operation, e.Used, e.Ceiling, e.ResetIn)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// Limiter gates metered operations against the ledger.
//
// Check and the later Record are deliberately not atomic: two concurrent
// requests from one subject can both pass Check and both write usage,
// overshooting the ceiling by at most one operation's cost per concurrent
// request. A transactional counter would close that gap but is not worth
// it for these ceilings; callers must not add locking here.
type Limiter struct {
	ledger Ledger
	rules  map[string]Rule
}

func NewLimiter(ledger Ledger, rules []Rule) *Limiter {
	m := make(map[string]Rule, len(rules))
	for _, r := range rules {
		m[r.Operation] = r
	}
	return &Limiter{ledger: ledger, rules: m}
}

// Check returns nil when the subject may proceed with operation, a
// *QuotaError when the window is already at or over the ceiling, or the
// ledger's error as-is. A ledger failure means the quota cannot be
// verified, so the caller must refuse the operation.
func (l *Limiter) Check(ctx context.Context, subjectID int64, operation string) error {
	rule, ok := l.rules[operation]
	if !ok {
		return fmt.Errorf("usage: unknown operation %q", operation)
	}
	used, err := l.ledger.ConsumedInWindow(ctx, subjectID, operation, rule.Window)
	if err != nil {
		return err
	}
	if used >= rule.Ceiling {
		return &QuotaError{
			Operation: operation,
			Used:      used,
			Ceiling:   rule.Ceiling,
			ResetIn:   rule.Window,
		}
	}
	return nil
}

// Record writes consumption after the metered operation completed.
// Failed AI calls record 0 units so the attempt is still visible.
func (l *Limiter) Record(ctx context.Context, subjectID int64, operation string, units float64) error {
	return l.ledger.Record(ctx, subjectID, operation, units)
}
