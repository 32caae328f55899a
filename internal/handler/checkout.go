package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	stripeapi "github.com/stripe/stripe-go/v82"

	"github.com/TomiRonco/gym-pro-sub000/internal/activity"
	"github.com/TomiRonco/gym-pro-sub000/internal/model"
	"github.com/TomiRonco/gym-pro-sub000/internal/reconcile"
	"github.com/TomiRonco/gym-pro-sub000/internal/store"
	"github.com/TomiRonco/gym-pro-sub000/internal/stripe"
	"github.com/TomiRonco/gym-pro-sub000/internal/websocket"
)

// CheckoutHandler serves online plan payments: a hosted checkout session and
// the webhook that records the completed payment.
type CheckoutHandler struct {
	client       *stripe.Client
	memberStore  *store.MemberStore
	planStore    *store.PlanStore
	paymentStore *store.PaymentStore
	feed         *activity.Feed
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewCheckoutHandler(client *stripe.Client, ms *store.MemberStore, pls *store.PlanStore, ps *store.PaymentStore, feed *activity.Feed, hub *websocket.Hub, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		client:       client,
		memberStore:  ms,
		planStore:    pls,
		paymentStore: ps,
		feed:         feed,
		hub:          hub,
		logger:       logger,
	}
}

// CreateSession creates a checkout session for a member paying a plan online
// and returns the hosted payment URL.
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if !h.client.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "online payments not configured"})
		return
	}

	var req struct {
		MemberID int64 `json:"member_id"`
		PlanID   int64 `json:"plan_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	member, err := h.memberStore.GetByID(req.MemberID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get member"})
		return
	}
	if member == nil || !member.IsActive {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member not found or inactive"})
		return
	}

	plan, err := h.planStore.GetByID(req.PlanID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get plan"})
		return
	}
	if plan == nil || !plan.IsActive {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "plan not found or inactive"})
		return
	}

	url, err := h.client.CreateCheckoutSession(member, plan)
	if err != nil {
		h.logger.Error("create checkout session", "error", err, "member_id", member.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create checkout session"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Webhook handles Stripe events. A completed checkout session becomes a
// verified transfer payment and renews the member's end date.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := h.client.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if event.Type == "checkout.session.completed" {
		h.handleCheckoutCompleted(event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *CheckoutHandler) handleCheckoutCompleted(event stripeapi.Event) {
	var sess stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("webhook: unmarshal checkout session", "error", err)
		return
	}

	memberID, err := strconv.ParseInt(sess.Metadata["member_id"], 10, 64)
	if err != nil {
		h.logger.Error("webhook: checkout session missing member_id metadata")
		return
	}
	planID, _ := strconv.ParseInt(sess.Metadata["plan_id"], 10, 64)

	member, err := h.memberStore.GetByID(memberID)
	if err != nil || member == nil {
		h.logger.Error("webhook: member not found", "member_id", memberID, "error", err)
		return
	}

	concept := "Pago online"
	if plan, err := h.planStore.GetByID(planID); err == nil && plan != nil {
		concept = "Pago online: " + plan.Name
	}

	payment, err := h.paymentStore.Create(store.PaymentParams{
		MemberID:       memberID,
		Amount:         float64(sess.AmountTotal) / 100,
		PaymentMethod:  model.MethodTransfer,
		PaymentConcept: concept,
		Description:    "Stripe checkout " + sess.ID,
	})
	if err != nil {
		h.logger.Error("webhook: create payment", "error", err, "member_id", memberID)
		return
	}
	if _, err := h.paymentStore.VerifySystem(payment.ID); err != nil {
		h.logger.Error("webhook: verify payment", "error", err, "payment_id", payment.ID)
	}

	// Online payment renews on the server; the front-desk flow renews in
	// the client and must not be doubled, this path has no client.
	end := time.Now().UTC()
	if member.MembershipEndDate != nil {
		end = *member.MembershipEndDate
	}
	if _, err := h.memberStore.SetEndDate(memberID, reconcile.RenewEndDate(end)); err != nil {
		h.logger.Error("webhook: renew membership", "error", err, "member_id", memberID)
	}

	h.feed.AddPayment(member.FullName(), float64(sess.AmountTotal)/100)
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPayment, "created", payment.ID,
		map[string]any{"member_id": memberID, "amount": float64(sess.AmountTotal) / 100}))

	h.logger.Info("webhook: checkout completed", "member_id", memberID, "payment_id", payment.ID)
}
