package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"staticfund-api/internal/advice"
	"staticfund-api/internal/store"
	"staticfund-api/pkg/logging/logging"
)

type HabitStore interface {
	ListHabits(ctx context.Context, userID int64) ([]store.Habit, error)
	AddHabits(ctx context.Context, userID int64, habits []store.NewHabit) error
	LogHabit(ctx context.Context, userID, habitID int64) error
	ListDevices(ctx context.Context, userID int64) ([]store.Device, error)
}

type HabitAdvisor interface {
	Habits(ctx context.Context, devices []advice.Device) (advice.HabitsResult, error)
}

// HabitHandler serves the daily habit list and completion log.
type HabitHandler struct {
	habits  HabitStore
	advisor HabitAdvisor
}

func NewHabitHandler(habits HabitStore, advisor HabitAdvisor) *HabitHandler {
	return &HabitHandler{habits: habits, advisor: advisor}
}

// List handles GET /api/habits?userId=. A user without habits gets a set
// generated from their devices on first request.
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.L(ctx)

	userID, err := queryID(r, "userId")
	if err != nil || userID == 0 {
		writeError(w, http.StatusBadRequest, "User ID required")
		return
	}

	habits, err := h.habits.ListHabits(ctx, userID)
	if err != nil {
		serverError(w, r, "list habits failed", err)
		return
	}

	if len(habits) == 0 {
		devices, err := h.habits.ListDevices(ctx, userID)
		if err != nil {
			serverError(w, r, "list devices failed", err)
			return
		}

		generated, err := h.advisor.Habits(ctx, adviceDevices(devices))
		if err != nil {
			logger.Warn("habit generation failed", zap.Int64("user_id", userID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "Failed to generate habits")
			return
		}

		newHabits := make([]store.NewHabit, len(generated.Habits))
		for i, hb := range generated.Habits {
			newHabits[i] = store.NewHabit{Title: hb.Title, Description: hb.Description, ImpactLevel: hb.ImpactLevel}
		}
		if err := h.habits.AddHabits(ctx, userID, newHabits); err != nil {
			serverError(w, r, "save habits failed", err)
			return
		}
		logger.Info("habits generated",
			zap.Int64("user_id", userID),
			zap.Int("count", len(newHabits)),
			zap.Bool("cached", generated.Cached),
		)

		if habits, err = h.habits.ListHabits(ctx, userID); err != nil {
			serverError(w, r, "list habits failed", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, habits)
}

type habitLogRequest struct {
	UserID  int64 `json:"userId"`
	HabitID int64 `json:"habitId"`
}

// Log handles POST /api/habits/log.
func (h *HabitHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req habitLogRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if req.UserID <= 0 || req.HabitID <= 0 {
		writeError(w, http.StatusBadRequest, "User ID and habit ID required")
		return
	}

	err := h.habits.LogHabit(r.Context(), req.UserID, req.HabitID)
	switch {
	case errors.Is(err, store.ErrAlreadyLogged):
		writeJSON(w, http.StatusOK, map[string]string{"message": "Already logged today"})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Habit not found")
	case err != nil:
		serverError(w, r, "log habit failed", err)
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func adviceDevices(devices []store.Device) []advice.Device {
	out := make([]advice.Device, len(devices))
	for i, d := range devices {
		out[i] = advice.Device{
			ID:          d.ID,
			Name:        d.Name,
			Watts:       d.Watts,
			SurgeWatts:  d.SurgeWatts,
			HoursPerDay: d.HoursPerDay,
			DaysPerWeek: d.DaysPerWeek,
		}
	}
	return out
}
