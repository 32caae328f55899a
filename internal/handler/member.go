package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/activity"
	"github.com/TomiRonco/gym-pro-sub000/internal/model"
	"github.com/TomiRonco/gym-pro-sub000/internal/reconcile"
	"github.com/TomiRonco/gym-pro-sub000/internal/store"
	"github.com/TomiRonco/gym-pro-sub000/internal/websocket"
)

type MemberHandler struct {
	memberStore *store.MemberStore
	feed        *activity.Feed
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewMemberHandler(ms *store.MemberStore, feed *activity.Feed, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{memberStore: ms, feed: feed, hub: hub, logger: logger}
}

type memberRequest struct {
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	DNI                 string `json:"dni"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Address             string `json:"address"`
	MembershipType      string `json:"membership_type"`
	MembershipStartDate string `json:"membership_start_date"`
	MembershipEndDate   string `json:"membership_end_date"`
	TrainerID           *int64 `json:"trainer_id"`
	Notes               string `json:"notes"`
}

func (req *memberRequest) toParams() (store.MemberParams, string) {
	p := store.MemberParams{
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		DNI:            strings.TrimSpace(req.DNI),
		Email:          strings.TrimSpace(req.Email),
		Phone:          req.Phone,
		Address:        req.Address,
		MembershipType: req.MembershipType,
		TrainerID:      req.TrainerID,
		Notes:          req.Notes,
	}
	if p.FirstName == "" || p.LastName == "" {
		return p, "first_name and last_name are required"
	}
	if p.DNI == "" {
		return p, "dni is required"
	}
	if p.Email == "" {
		return p, "email is required"
	}

	if req.MembershipStartDate != "" {
		start, err := time.Parse(time.RFC3339, req.MembershipStartDate)
		if err != nil {
			return p, "membership_start_date must be RFC3339 format"
		}
		p.MembershipStartDate = start
	} else {
		p.MembershipStartDate = time.Now().UTC()
	}
	if req.MembershipEndDate != "" {
		end, err := time.Parse(time.RFC3339, req.MembershipEndDate)
		if err != nil {
			return p, "membership_end_date must be RFC3339 format"
		}
		p.MembershipEndDate = &end
	}
	return p, ""
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	params, msg := req.toParams()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}
	// A new membership runs one month from its start date unless the form
	// sets an explicit end. Without this the renewal flow has no date to
	// extend.
	if params.MembershipEndDate == nil {
		end := reconcile.RenewEndDate(params.MembershipStartDate)
		params.MembershipEndDate = &end
	}

	if existing, err := h.memberStore.GetByDNI(params.DNI); err == nil && existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a member with this dni already exists"})
		return
	}
	if existing, err := h.memberStore.GetByEmail(params.Email); err == nil && existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a member with this email already exists"})
		return
	}

	number, err := h.memberStore.NextMembershipNumber(time.Now().Year())
	if err != nil {
		h.logger.Error("next membership number", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create member"})
		return
	}
	params.MembershipNumber = number

	member, err := h.memberStore.Create(params)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create member"})
		return
	}

	h.feed.AddNewMember(member.FullName())
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityMember, "created", member.ID, nil))
	writeJSON(w, http.StatusCreated, member)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{Search: r.URL.Query().Get("search")}
	switch r.URL.Query().Get("is_active") {
	case "true":
		v := true
		filter.IsActive = &v
	case "false":
		v := false
		filter.IsActive = &v
	}

	members, err := h.memberStore.List(filter)
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list members"})
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	member, err := h.memberStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get member"})
		return
	}
	if member == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "member not found"})
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	existing, err := h.memberStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get member"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "member not found"})
		return
	}

	// Partial update: fields absent from the body keep their stored value.
	req := memberRequest{
		FirstName:      existing.FirstName,
		LastName:       existing.LastName,
		DNI:            existing.DNI,
		Email:          existing.Email,
		Phone:          existing.Phone,
		Address:        existing.Address,
		MembershipType: existing.MembershipType,
		TrainerID:      existing.TrainerID,
		Notes:          existing.Notes,
	}
	req.MembershipStartDate = existing.MembershipStartDate.Format(time.RFC3339)
	if existing.MembershipEndDate != nil {
		req.MembershipEndDate = existing.MembershipEndDate.Format(time.RFC3339)
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	params, msg := req.toParams()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	member, err := h.memberStore.Update(id, params)
	if err != nil {
		h.logger.Error("update member", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update member"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityMember, "updated", member.ID, nil))
	writeJSON(w, http.StatusOK, member)
}

// Deactivate is the soft delete used by the admin screens.
func (h *MemberHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	member, err := h.memberStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get member"})
		return
	}
	if member == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "member not found"})
		return
	}

	if err := h.memberStore.SetActive(id, false); err != nil {
		h.logger.Error("deactivate member", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to deactivate member"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityMember, "deactivated", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
