package reviews

import (
	"context"
	"fmt"

	"github.com/weekview/weekview/internal/domain/usage"
)

// Creator is the slice of the repo Submit needs; tests swap in a memory one.
type Creator interface {
	Create(ctx context.Context, rev Review) (int64, error)
}

type Service struct {
	store   Creator
	limiter *usage.Limiter
}

func NewService(store Creator, limiter *usage.Limiter) *Service {
	return &Service{store: store, limiter: limiter}
}

// Submit stores one weekly review, gated by the review-submit quota.
// The quota check runs before the insert; the usage row is written after,
// so concurrent submissions can overshoot by at most their own count.
func (s *Service) Submit(ctx context.Context, rev Review) (int64, error) {
	if rev.Mood < 1 || rev.Mood > 5 {
		return 0, fmt.Errorf("reviews: mood %d out of range", rev.Mood)
	}
	if err := s.limiter.Check(ctx, rev.SubjectID, usage.OpReviewSubmit); err != nil {
		return 0, err
	}
	id, err := s.store.Create(ctx, rev)
	if err != nil {
		return 0, err
	}
	if err := s.limiter.Record(ctx, rev.SubjectID, usage.OpReviewSubmit, 1); err != nil {
		return 0, fmt.Errorf("reviews: submission stored but usage not recorded: %w", err)
	}
	return id, nil
}
