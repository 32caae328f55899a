package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/activity"
	"github.com/TomiRonco/gym-pro-sub000/internal/auth"
	"github.com/TomiRonco/gym-pro-sub000/internal/model"
	"github.com/TomiRonco/gym-pro-sub000/internal/store"
	"github.com/TomiRonco/gym-pro-sub000/internal/websocket"
)

type PaymentHandler struct {
	paymentStore *store.PaymentStore
	memberStore  *store.MemberStore
	feed         *activity.Feed
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewPaymentHandler(ps *store.PaymentStore, ms *store.MemberStore, feed *activity.Feed, hub *websocket.Hub, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{paymentStore: ps, memberStore: ms, feed: feed, hub: hub, logger: logger}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID       int64        `json:"member_id"`
		Amount         model.Amount `json:"amount"`
		PaymentDate    string       `json:"payment_date"`
		PaymentMethod  string       `json:"payment_method"`
		PaymentConcept string       `json:"payment_concept"`
		Description    string       `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.MemberID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member_id is required"})
		return
	}
	if req.Amount.Float64() <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be positive"})
		return
	}
	if !model.ValidMethod(req.PaymentMethod) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_method"})
		return
	}

	member, err := h.memberStore.GetByID(req.MemberID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get member"})
		return
	}
	if member == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member not found"})
		return
	}

	params := store.PaymentParams{
		MemberID:       req.MemberID,
		Amount:         req.Amount.Float64(),
		PaymentMethod:  req.PaymentMethod,
		PaymentConcept: req.PaymentConcept,
		Description:    req.Description,
	}
	if req.PaymentDate != "" {
		date, err := time.Parse(time.RFC3339, req.PaymentDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment_date must be RFC3339 format"})
			return
		}
		params.PaymentDate = date
	}

	payment, err := h.paymentStore.Create(params)
	if err != nil {
		h.logger.Error("create payment", "error", err, "member_id", req.MemberID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create payment"})
		return
	}

	h.feed.AddPayment(member.FullName(), payment.Amount.Float64())
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPayment, "created", payment.ID,
		map[string]any{"member_id": member.ID, "amount": payment.Amount.Float64()}))
	writeJSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.PaymentFilter{Method: q.Get("payment_method")}

	if idStr := q.Get("member_id"); idStr != "" {
		member, err := parseIDQuery(idStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member_id"})
			return
		}
		filter.MemberID = member
	}
	switch q.Get("is_verified") {
	case "true":
		v := true
		filter.IsVerified = &v
	case "false":
		v := false
		filter.IsVerified = &v
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from must be RFC3339 format"})
			return
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to must be RFC3339 format"})
			return
		}
		filter.To = t
	}

	payments, err := h.paymentStore.List(filter)
	if err != nil {
		h.logger.Error("list payments", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list payments"})
		return
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	payment, err := h.paymentStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get payment"})
		return
	}
	if payment == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "payment not found"})
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	payment, err := h.paymentStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get payment"})
		return
	}
	if payment == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "payment not found"})
		return
	}

	verified, err := h.paymentStore.Verify(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("verify payment", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to verify payment"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPayment, "verified", id, nil))
	writeJSON(w, http.StatusOK, verified)
}

func (h *PaymentHandler) Unverify(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	payment, err := h.paymentStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get payment"})
		return
	}
	if payment == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "payment not found"})
		return
	}

	unverified, err := h.paymentStore.Unverify(id)
	if err != nil {
		h.logger.Error("unverify payment", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to unverify payment"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPayment, "unverified", id, nil))
	writeJSON(w, http.StatusOK, unverified)
}

// MonthStats returns the collected total and payment count for a calendar
// month (?month=&year=, defaulting to the current one).
func (h *PaymentHandler) MonthStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	month := now.Month()
	year := now.Year()

	q := r.URL.Query()
	if mStr := q.Get("month"); mStr != "" {
		m, err := strconv.Atoi(mStr)
		if err != nil || m < 1 || m > 12 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be 1-12"})
			return
		}
		month = time.Month(m)
	}
	if yStr := q.Get("year"); yStr != "" {
		y, err := strconv.Atoi(yStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
		year = y
	}

	total, count, err := h.paymentStore.MonthTotal(month, year)
	if err != nil {
		h.logger.Error("month stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute stats"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":           int(month),
		"year":            year,
		"total_collected": total,
		"payment_count":   count,
	})
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	err = h.paymentStore.Delete(id)
	if err == store.ErrVerified {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "verified payments cannot be deleted"})
		return
	}
	if err != nil {
		h.logger.Error("delete payment", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete payment"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPayment, "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
