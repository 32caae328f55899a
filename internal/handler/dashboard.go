package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/activity"
	"github.com/TomiRonco/gym-pro-sub000/internal/dashboard"
	"github.com/TomiRonco/gym-pro-sub000/internal/store"
)

type DashboardHandler struct {
	memberStore  *store.MemberStore
	paymentStore *store.PaymentStore
	feed         *activity.Feed
	logger       *slog.Logger
}

func NewDashboardHandler(ms *store.MemberStore, ps *store.PaymentStore, feed *activity.Feed, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{memberStore: ms, paymentStore: ps, feed: feed, logger: logger}
}

// Stats serves the overview numbers computed from full snapshots.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberStore.List(store.ListFilter{})
	if err != nil {
		h.logger.Error("dashboard members", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute stats"})
		return
	}
	payments, err := h.paymentStore.List(store.PaymentFilter{})
	if err != nil {
		h.logger.Error("dashboard payments", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute stats"})
		return
	}

	writeJSON(w, http.StatusOK, dashboard.Compute(members, payments, time.Now().UTC()))
}

type activityEntry struct {
	ID          string  `json:"id"`
	Icon        string  `json:"icon"`
	Subject     string  `json:"subject"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount,omitempty"`
	TimeAgo     string  `json:"time_ago"`
}

// RecentActivity serves the in-memory activity feed, most recent first.
func (h *DashboardHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	n := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		n = parsed
	}

	now := time.Now()
	records := h.feed.Recent(n)
	entries := make([]activityEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, activityEntry{
			ID:          rec.ID,
			Icon:        rec.Kind.Icon(),
			Subject:     rec.Subject,
			Description: rec.Description,
			Amount:      rec.Amount,
			TimeAgo:     activity.TimeAgo(now, rec.Timestamp),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}
