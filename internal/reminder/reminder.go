package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/weekview/weekview/internal/domain/subscribers"
	"github.com/weekview/weekview/internal/infra/metrics"
	"github.com/weekview/weekview/internal/push"
)

// SubscriptionSource is the slice of the subscribers repo the reminder uses.
type SubscriptionSource interface {
	ListActive(ctx context.Context) ([]subscribers.Subscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// Alerter receives ops alerts when a batch degrades. Optional.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Service periodically nudges everyone with a registered push endpoint to
// submit their weekly review.
type Service struct {
	log      *slog.Logger
	subs     SubscriptionSource
	disp     *push.Dispatcher
	creds    push.Credentials
	msg      Message
	interval time.Duration
	alert    Alerter // may be nil
}

func New(log *slog.Logger, subs SubscriptionSource, disp *push.Dispatcher,
	creds push.Credentials, msg Message, interval time.Duration, alert Alerter) *Service {

	return &Service{
		log: log, subs: subs, disp: disp,
		creds: creds, msg: msg, interval: interval, alert: alert,
	}
}

// Run ticks until ctx is cancelled. Refuses to start without VAPID keys:
// every batch would fail identically, better to fail loudly at startup.
func (s *Service) Run(ctx context.Context) error {
	if !s.creds.Configured() {
		return push.ErrNotConfigured
	}

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("reminder batch failed", "err", err)
			}
		}
	}
}

// RunOnce sends one reminder batch and prunes endpoints the push service
// rejected as gone.
func (s *Service) RunOnce(ctx context.Context) (push.Report, error) {
	batchID := uuid.NewString()

	subs, err := s.subs.ListActive(ctx)
	if err != nil {
		return push.Report{}, fmt.Errorf("reminder: list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		s.log.Debug("no push subscriptions, skipping batch", "batch", batchID)
		return push.Report{}, nil
	}

	payload, err := json.Marshal(s.msg)
	if err != nil {
		return push.Report{}, fmt.Errorf("reminder: marshal payload: %w", err)
	}

	targets := make([]push.Target, len(subs))
	for i, sub := range subs {
		targets[i] = push.Target{SubjectID: sub.SubjectID, Endpoint: sub.Endpoint}
	}

	rep, err := s.disp.FanOut(ctx, targets, func(int64) []byte { return payload }, s.creds)
	if err != nil {
		return push.Report{}, err
	}

	for _, res := range rep.Results {
		metrics.PushDispatch.WithLabelValues(string(res.Outcome)).Inc()
		if res.Outcome != push.OutcomeRejected {
			continue
		}
		// 4xx means the endpoint is gone; keeping it only burns quota.
		if err := s.subs.DeleteByEndpoint(ctx, res.Endpoint); err != nil {
			s.log.Error("failed to drop stale subscription",
				"batch", batchID, "endpoint", res.Endpoint, "err", err)
		}
	}

	s.log.Info("reminder batch done",
		"batch", batchID,
		"targets", len(targets),
		"delivered", rep.Delivered,
		"failed", rep.Failed,
	)

	if s.alert != nil && rep.Failed > rep.Delivered {
		text := fmt.Sprintf("reminder batch %s degraded: %d delivered, %d failed",
			batchID, rep.Delivered, rep.Failed)
		if err := s.alert.Alert(ctx, text); err != nil {
			s.log.Error("ops alert failed", "batch", batchID, "err", err)
		}
	}
	return rep, nil
}
