package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekview/weekview/internal/ai"
	"github.com/weekview/weekview/internal/domain/reviews"
	"github.com/weekview/weekview/internal/domain/usage"
)

type stubCompleter struct {
	comp  ai.Completion
	err   error
	calls int
}

func (s *stubCompleter) Complete(context.Context, string, string) (ai.Completion, error) {
	s.calls++
	return s.comp, s.err
}

type stubSource struct {
	revs []reviews.Review
}

func (s *stubSource) ListByWeek(context.Context, string) ([]reviews.Review, error) {
	return s.revs, nil
}

type memStore struct {
	created []Report
}

func (m *memStore) Create(_ context.Context, rep Report) (int64, error) {
	m.created = append(m.created, rep)
	return int64(len(m.created)), nil
}

type recordingLedger struct {
	usage.Ledger
	records []float64
}

func (r *recordingLedger) Record(ctx context.Context, subjectID int64, op string, units float64) error {
	r.records = append(r.records, units)
	return r.Ledger.Record(ctx, subjectID, op, units)
}

func weekReviews() []reviews.Review {
	return []reviews.Review{
		{SubjectID: 1, Mood: 4, Wins: "launched", Blockers: "none"},
		{SubjectID: 2, Mood: 2, Wins: "", Blockers: "waiting on design"},
	}
}

func TestGenerateRecordsTokenUsage(t *testing.T) {
	completer := &stubCompleter{comp: ai.Completion{Text: "summary", TokensUsed: 123}}
	store := &memStore{}
	ledger := &recordingLedger{Ledger: usage.NewMemLedger()}
	limiter := usage.NewLimiter(ledger, usage.DefaultRules())

	svc := NewService(store, &stubSource{revs: weekReviews()}, completer, limiter, "gpt-4o-mini")

	rep, err := svc.Generate(context.Background(), 9, "2026-08-24")
	require.NoError(t, err)
	assert.Equal(t, "summary", rep.Summary)
	assert.Equal(t, 123, rep.TokensUsed)
	assert.Equal(t, int64(9), rep.CreatedBy)
	require.Len(t, store.created, 1)

	require.Equal(t, []float64{123}, ledger.records, "token count recorded after the call")
	consumed, err := ledger.ConsumedInWindow(context.Background(), 9, usage.OpAIReport, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 123.0, consumed)
}

func TestGenerateFailedCallStillLogsAttempt(t *testing.T) {
	completer := &stubCompleter{err: errors.New("provider down")}
	store := &memStore{}
	ledger := &recordingLedger{Ledger: usage.NewMemLedger()}
	limiter := usage.NewLimiter(ledger, usage.DefaultRules())

	svc := NewService(store, &stubSource{revs: weekReviews()}, completer, limiter, "gpt-4o-mini")

	_, err := svc.Generate(context.Background(), 9, "2026-08-24")
	require.Error(t, err)
	assert.Empty(t, store.created)
	assert.Equal(t, []float64{0}, ledger.records, "failed attempt logged with zero cost")
}

func TestGenerateQuotaExceededSkipsProvider(t *testing.T) {
	completer := &stubCompleter{comp: ai.Completion{Text: "x"}}
	ledger := usage.NewMemLedger()
	limiter := usage.NewLimiter(ledger, usage.DefaultRules())
	require.NoError(t, ledger.Record(context.Background(), 9, usage.OpAIReport, 1000))

	svc := NewService(&memStore{}, &stubSource{revs: weekReviews()}, completer, limiter, "gpt-4o-mini")

	_, err := svc.Generate(context.Background(), 9, "2026-08-24")
	require.Error(t, err)
	assert.ErrorIs(t, err, usage.ErrQuotaExceeded)
	assert.Zero(t, completer.calls, "quota check must precede the provider call")
}

func TestGenerateNoReviews(t *testing.T) {
	completer := &stubCompleter{}
	limiter := usage.NewLimiter(usage.NewMemLedger(), usage.DefaultRules())

	svc := NewService(&memStore{}, &stubSource{}, completer, limiter, "gpt-4o-mini")

	_, err := svc.Generate(context.Background(), 9, "2026-08-24")
	require.Error(t, err)
	assert.Zero(t, completer.calls)
}
