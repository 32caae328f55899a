package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
	"github.com/TomiRonco/gym-pro-sub000/internal/store"
	"github.com/TomiRonco/gym-pro-sub000/internal/websocket"
)

type PlanHandler struct {
	planStore *store.PlanStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewPlanHandler(ps *store.PlanStore, hub *websocket.Hub, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{planStore: ps, hub: hub, logger: logger}
}

type planRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       model.Amount `json:"price"`
	DaysPerWeek int          `json:"days_per_week"`
	Features    string       `json:"features"`
}

func (req *planRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.Price.Float64() < 0 {
		return "price cannot be negative"
	}
	if req.DaysPerWeek < 1 || req.DaysPerWeek > 7 {
		return "days_per_week must be between 1 and 7"
	}
	return ""
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	plan, err := h.planStore.Create(store.PlanParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Float64(),
		DaysPerWeek: req.DaysPerWeek,
		Features:    req.Features,
	})
	if err != nil {
		h.logger.Error("create plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create plan"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPlan, "created", plan.ID, nil))
	writeJSON(w, http.StatusCreated, plan)
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	plans, err := h.planStore.List(includeInactive)
	if err != nil {
		h.logger.Error("list plans", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list plans"})
		return
	}
	if plans == nil {
		plans = []model.MembershipPlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	plan, err := h.planStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get plan"})
		return
	}
	if plan == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	existing, err := h.planStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get plan"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	plan, err := h.planStore.Update(id, store.PlanParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Float64(),
		DaysPerWeek: req.DaysPerWeek,
		Features:    req.Features,
	})
	if err != nil {
		h.logger.Error("update plan", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update plan"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPlan, "updated", plan.ID, nil))
	writeJSON(w, http.StatusOK, plan)
}

// Retire deactivates a plan so it stops being offered without breaking
// members already on it.
func (h *PlanHandler) Retire(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	plan, err := h.planStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get plan"})
		return
	}
	if plan == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
		return
	}

	if err := h.planStore.SetActive(id, false); err != nil {
		h.logger.Error("retire plan", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to retire plan"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPlan, "retired", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "retired"})
}
