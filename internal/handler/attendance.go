package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/TomiRonco/gym-pro-sub000/internal/activity"
	"github.com/TomiRonco/gym-pro-sub000/internal/model"
	"github.com/TomiRonco/gym-pro-sub000/internal/store"
	"github.com/TomiRonco/gym-pro-sub000/internal/websocket"
)

type AttendanceHandler struct {
	attendanceStore *store.AttendanceStore
	memberStore     *store.MemberStore
	feed            *activity.Feed
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewAttendanceHandler(as *store.AttendanceStore, ms *store.MemberStore, feed *activity.Feed, hub *websocket.Hub, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendanceStore: as, memberStore: ms, feed: feed, hub: hub, logger: logger}
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID int64  `json:"member_id"`
		Notes    string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.MemberID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member_id is required"})
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
	if !member.IsActive {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member is inactive"})
		return
	}
	if member.Expired(time.Now()) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "membership has expired"})
		return
	}

	visit, err := h.attendanceStore.CheckIn(req.MemberID, req.Notes)
	if err == store.ErrAlreadyCheckedIn {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "member already checked in"})
		return
	}
	if err != nil {
		h.logger.Error("check in", "error", err, "member_id", req.MemberID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check in"})
		return
	}

	h.feed.AddCheckIn(member.FullName())
	h.hub.Broadcast(websocket.NewMessage(websocket.EntityAttendance, "checked_in", visit.ID,
		map[string]any{"member_id": member.ID}))
	writeJSON(w, http.StatusCreated, visit)
}

func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID int64 `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.MemberID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member_id is required"})
		return
	}

	visit, err := h.attendanceStore.CheckOut(req.MemberID)
	if err != nil {
		h.logger.Error("check out", "error", err, "member_id", req.MemberID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check out"})
		return
	}
	if visit == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member has no open visit"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityAttendance, "checked_out", visit.ID,
		map[string]any{"member_id": req.MemberID}))
	writeJSON(w, http.StatusOK, visit)
}

// List returns visits for a member (?member_id=) or a calendar day (?date=),
// defaulting to today.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if idStr := q.Get("member_id"); idStr != "" {
		memberID, err := parseIDQuery(idStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid member_id"})
			return
		}
		visits, err := h.attendanceStore.ListByMember(memberID, 0)
		if err != nil {
			h.logger.Error("list attendance", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list attendance"})
			return
		}
		writeVisits(w, visits)
		return
	}

	day := time.Now().UTC()
	if dateStr := q.Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	visits, err := h.attendanceStore.ListDay(day)
	if err != nil {
		h.logger.Error("list attendance", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list attendance"})
		return
	}
	writeVisits(w, visits)
}

func writeVisits(w http.ResponseWriter, visits []model.Attendance) {
	if visits == nil {
		visits = []model.Attendance{}
	}
	writeJSON(w, http.StatusOK, visits)
}
