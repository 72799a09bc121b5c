package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemLedgerEmptyWindow(t *testing.T) {
	l := NewMemLedger()
	got, err := l.ConsumedInWindow(context.Background(), 42, OpAIReport, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestMemLedgerSumsWindow(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, 1, OpAIReport, 7))
	require.NoError(t, l.Record(ctx, 1, OpAIReport, 3))
	require.NoError(t, l.Record(ctx, 1, OpReviewSubmit, 100)) // different pool
	require.NoError(t, l.Record(ctx, 2, OpAIReport, 100))     // different subject

	got, err := l.ConsumedInWindow(ctx, 1, OpAIReport, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got)
}

func TestMemLedgerExcludesOldRecords(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return now })
	require.NoError(t, l.Record(ctx, 1, OpReviewSubmit, 1))

	l.SetClock(func() time.Time { return now.Add(25 * time.Hour) })
	got, err := l.ConsumedInWindow(ctx, 1, OpReviewSubmit, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestMemLedgerWindowBoundaryInclusive(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return now })
	require.NoError(t, l.Record(ctx, 1, OpReviewSubmit, 1))

	// A record exactly at now-window still counts.
	l.SetClock(func() time.Time { return now.Add(24 * time.Hour) })
	got, err := l.ConsumedInWindow(ctx, 1, OpReviewSubmit, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestLimiterAllowsUnderCeiling(t *testing.T) {
	l := NewMemLedger()
	lim := NewLimiter(l, DefaultRules())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, lim.Record(ctx, 1, OpReviewSubmit, 1))
	}
	assert.NoError(t, lim.Check(ctx, 1, OpReviewSubmit))
}

func TestLimiterRejectsAtCeiling(t *testing.T) {
	l := NewMemLedger()
	lim := NewLimiter(l, DefaultRules())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, lim.Record(ctx, 1, OpReviewSubmit, 1))
	}

	err := lim.Check(ctx, 1, OpReviewSubmit)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	var qe *QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 5.0, qe.Used)
	assert.Equal(t, 5.0, qe.Ceiling)
	assert.Equal(t, 24*time.Hour, qe.ResetIn)
}

func TestLimiterUnknownOperation(t *testing.T) {
	lim := NewLimiter(NewMemLedger(), DefaultRules())
	assert.Error(t, lim.Check(context.Background(), 1, "pdf-export"))
}

type failingLedger struct{ err error }

func (f failingLedger) Record(context.Context, int64, string, float64) error { return f.err }
func (f failingLedger) ConsumedInWindow(context.Context, int64, string, time.Duration) (float64, error) {
	return 0, f.err
}

func TestLimiterRefusesWhenLedgerDown(t *testing.T) {
	down := errors.New("connection refused")
	lim := NewLimiter(failingLedger{err: down}, DefaultRules())

	err := lim.Check(context.Background(), 1, OpAIReport)
	require.Error(t, err)
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
}
