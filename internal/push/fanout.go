package push

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

var ErrNotConfigured = errors.New("push: VAPID credentials not configured")

// Batch concurrency. Dispatches are independent, so this only protects the
// push services and our outbound connection budget.
const maxInFlight = 8

// Report aggregates one fan-out batch.
type Report struct {
	Results   []DispatchResult
	Delivered int
	Failed    int
}

// FanOut delivers one logical notification to every target. A failing
// endpoint never blocks the others; every target gets exactly one
// DispatchResult. The only batch-fatal condition is missing credentials,
// checked before any network I/O since every attempt would fail the same
// way.
func (d *Dispatcher) FanOut(ctx context.Context, targets []Target, buildPayload func(subjectID int64) []byte, creds Credentials) (Report, error) {
	if !creds.Configured() {
		return Report{}, ErrNotConfigured
	}

	results := make([]DispatchResult, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)

	for i, t := range targets {
		g.Go(func() error {
			res, err := d.Dispatch(ctx, t, buildPayload(t.SubjectID), creds)
			if err != nil {
				// Malformed target: still surfaces as a per-target result.
				res = DispatchResult{SubjectID: t.SubjectID, Endpoint: t.Endpoint, Outcome: OutcomeError, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	rep := Report{Results: results}
	for _, r := range results {
		if r.Outcome == OutcomeDelivered {
			rep.Delivered++
		} else {
			rep.Failed++
		}
	}
	return rep, nil
}
