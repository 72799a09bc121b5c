package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PushDispatch counts dispatch attempts by outcome (delivered, rejected, error).
	PushDispatch = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weekview_push_dispatch_total",
		Help: "Push dispatch attempts by outcome.",
	}, []string{"outcome"})

	QuotaRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weekview_quota_rejections_total",
		Help: "Operations rejected by the usage limiter.",
	}, []string{"operation"})

	AIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weekview_ai_requests_total",
		Help: "AI provider calls by result (ok, error).",
	}, []string{"result"})
)
