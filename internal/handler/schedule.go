package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/TomiRonco/gym-pro-sub000/internal/model"
	"github.com/TomiRonco/gym-pro-sub000/internal/store"
	"github.com/TomiRonco/gym-pro-sub000/internal/websocket"
)

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type ScheduleHandler struct {
	scheduleStore *store.ScheduleStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewScheduleHandler(ss *store.ScheduleStore, hub *websocket.Hub, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduleStore: ss, hub: hub, logger: logger}
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.scheduleStore.List()
	if err != nil {
		h.logger.Error("list schedules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list schedules"})
		return
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	existing, err := h.scheduleStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get schedule"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule not found"})
		return
	}

	var req struct {
		Name        string `json:"name"`
		OpeningTime string `json:"opening_time"`
		ClosingTime string `json:"closing_time"`
		IsOpen      bool   `json:"is_open"`
		Notes       string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !timeOfDayRe.MatchString(req.OpeningTime) || !timeOfDayRe.MatchString(req.ClosingTime) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "opening_time and closing_time must be HH:MM"})
		return
	}

	schedule, err := h.scheduleStore.Update(id, store.ScheduleParams{
		Name:        req.Name,
		OpeningTime: req.OpeningTime,
		ClosingTime: req.ClosingTime,
		IsOpen:      req.IsOpen,
		Notes:       req.Notes,
	})
	if err != nil {
		h.logger.Error("update schedule", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update schedule"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntitySchedule, "updated", schedule.ID, nil))
	writeJSON(w, http.StatusOK, schedule)
}
