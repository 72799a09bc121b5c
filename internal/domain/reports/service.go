package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/weekview/weekview/internal/ai"
	"github.com/weekview/weekview/internal/domain/reviews"
	"github.com/weekview/weekview/internal/domain/usage"
	"github.com/weekview/weekview/internal/infra/metrics"
)

const systemPrompt = "You summarize a team's weekly self-reviews for their manager. " +
	"Highlight shared wins, recurring blockers and overall mood. Be concrete and short."

type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (ai.Completion, error)
}

type ReviewSource interface {
	ListByWeek(ctx context.Context, weekStart string) ([]reviews.Review, error)
}

type Store interface {
	Create(ctx context.Context, rep Report) (int64, error)
}

type Service struct {
	store   Store
	source  ReviewSource
	ai      Completer
	limiter *usage.Limiter
	model   string
}

func NewService(store Store, source ReviewSource, completer Completer, limiter *usage.Limiter, model string) *Service {
	return &Service{store: store, source: source, ai: completer, limiter: limiter, model: model}
}

// Generate builds the AI team report for one week, metered against the
// requesting admin's ai-report quota. Token usage is recorded after the
// provider call: the real count on success, 0 on failure so the attempt
// still shows up in the log.
func (s *Service) Generate(ctx context.Context, adminID int64, weekStart string) (*Report, error) {
	if err := s.limiter.Check(ctx, adminID, usage.OpAIReport); err != nil {
		return nil, err
	}

	revs, err := s.source.ListByWeek(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("reports: load reviews: %w", err)
	}
	if len(revs) == 0 {
		return nil, fmt.Errorf("reports: no reviews for week %s", weekStart)
	}

	comp, aiErr := s.ai.Complete(ctx, systemPrompt, buildPrompt(weekStart, revs))
	if aiErr != nil {
		metrics.AIRequests.WithLabelValues("error").Inc()
		if recErr := s.limiter.Record(ctx, adminID, usage.OpAIReport, 0); recErr != nil {
			return nil, fmt.Errorf("reports: %v (and usage not recorded: %w)", aiErr, recErr)
		}
		return nil, fmt.Errorf("reports: generate: %w", aiErr)
	}
	metrics.AIRequests.WithLabelValues("ok").Inc()

	if err := s.limiter.Record(ctx, adminID, usage.OpAIReport, float64(comp.TokensUsed)); err != nil {
		return nil, fmt.Errorf("reports: usage not recorded: %w", err)
	}

	week, err := time.Parse("2006-01-02", weekStart)
	if err != nil {
		return nil, fmt.Errorf("reports: bad week %q: %w", weekStart, err)
	}
	rep := Report{
		WeekStart:  week,
		Summary:    comp.Text,
		Model:      s.model,
		TokensUsed: comp.TokensUsed,
		CreatedBy:  adminID,
	}
	id, err := s.store.Create(ctx, rep)
	if err != nil {
		return nil, fmt.Errorf("reports: store: %w", err)
	}
	rep.ID = id
	return &rep, nil
}

func buildPrompt(weekStart string, revs []reviews.Review) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week of %s, %d reviews.\n\n", weekStart, len(revs))
	for _, r := range revs {
		fmt.Fprintf(&b, "Member %d (mood %d/5)\nWins: %s\nBlockers: %s\n\n",
			r.SubjectID, r.Mood, r.Wins, r.Blockers)
	}
	return b.String()
}
