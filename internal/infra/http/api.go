package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/weekview/weekview/internal/domain/reports"
	"github.com/weekview/weekview/internal/domain/reviews"
	"github.com/weekview/weekview/internal/domain/subscribers"
	"github.com/weekview/weekview/internal/domain/usage"
	"github.com/weekview/weekview/internal/infra/metrics"
)

// API bundles the JSON handlers for the client app.
type API struct {
	log         *slog.Logger
	subs        *subscribers.Repo
	reviewSvc   *reviews.Service
	reviewsRepo *reviews.Repo
	reportSvc   *reports.Service
	reportsRepo *reports.Repo
}

func NewAPI(log *slog.Logger, subs *subscribers.Repo,
	reviewSvc *reviews.Service, reviewsRepo *reviews.Repo,
	reportSvc *reports.Service, reportsRepo *reports.Repo) *API {

	return &API{
		log: log, subs: subs,
		reviewSvc: reviewSvc, reviewsRepo: reviewsRepo,
		reportSvc: reportSvc, reportsRepo: reportsRepo,
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/push/subscribe", a.handleSubscribe)
	mux.HandleFunc("DELETE /api/push/subscribe", a.handleUnsubscribe)
	mux.HandleFunc("POST /api/reviews", a.handleSubmitReview)
	mux.HandleFunc("POST /api/reports", a.handleGenerateReport)
	mux.HandleFunc("GET /api/reports/export", a.handleExportWeek)
}

func (a *API) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubjectID int64  `json:"subject_id"`
		Endpoint  string `json:"endpoint"`
		Keys      struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.SubjectID <= 0 || req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "subject_id, endpoint and keys are required")
		return
	}

	id, err := a.subs.Save(r.Context(), subscribers.Subscription{
		SubjectID: req.SubjectID,
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
	})
	if err != nil {
		a.log.Error("subscription save failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (a *API) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}
	if err := a.subs.DeleteByEndpoint(r.Context(), req.Endpoint); err != nil {
		a.log.Error("subscription delete failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubjectID int64  `json:"subject_id"`
		WeekStart string `json:"week_start"`
		Wins      string `json:"wins"`
		Blockers  string `json:"blockers"`
		Mood      int    `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	week, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "week_start must be YYYY-MM-DD")
		return
	}

	id, err := a.reviewSvc.Submit(r.Context(), reviews.Review{
		SubjectID: req.SubjectID,
		WeekStart: week,
		Wins:      req.Wins,
		Blockers:  req.Blockers,
		Mood:      req.Mood,
	})
	if err != nil {
		a.respondMeteredError(w, usage.OpReviewSubmit, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (a *API) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminID   int64  `json:"admin_id"`
		WeekStart string `json:"week_start"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	rep, err := a.reportSvc.Generate(r.Context(), req.AdminID, req.WeekStart)
	if err != nil {
		a.respondMeteredError(w, usage.OpAIReport, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          rep.ID,
		"summary":     rep.Summary,
		"tokens_used": rep.TokensUsed,
	})
}

func (a *API) handleExportWeek(w http.ResponseWriter, r *http.Request) {
	week := r.URL.Query().Get("week")
	if _, err := time.Parse("2006-01-02", week); err != nil {
		writeError(w, http.StatusBadRequest, "week must be YYYY-MM-DD")
		return
	}

	data, err := reports.ExportWeekXLSX(r.Context(), a.reviewsRepo, a.reportsRepo, week)
	if err != nil {
		a.log.Error("export failed", "week", week, "err", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=reviews_%s.xlsx", week))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// respondMeteredError maps a quota rejection to 429 with the detail the UI
// renders as "used X of Y, resets in Z"; everything else is a 500.
func (a *API) respondMeteredError(w http.ResponseWriter, op string, err error) {
	var qe *usage.QuotaError
	if errors.As(err, &qe) {
		metrics.QuotaRejections.WithLabelValues(op).Inc()
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":    "quota exceeded",
			"used":     qe.Used,
			"limit":    qe.Ceiling,
			"reset_in": qe.ResetIn.String(),
		})
		return
	}
	a.log.Error("metered operation failed", "operation", op, "err", err)
	writeError(w, http.StatusInternalServerError, "operation failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
