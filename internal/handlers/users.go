package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"staticfund-api/internal/store"
	"staticfund-api/pkg/logging/logging"
)

type ProfileStore interface {
	UpdateProfile(ctx context.Context, id int64, updates ...store.ProfileUpdate) (store.User, error)
	SetBudget(ctx context.Context, id int64, budget float64) (float64, error)
}

// UserHandler serves the authenticated profile endpoints.
type UserHandler struct {
	users ProfileStore
}

func NewUserHandler(users ProfileStore) *UserHandler {
	return &UserHandler{users: users}
}

type onboardingRequest struct {
	UserID int64 `json:"userId"`
	store.Onboarding
}

// Onboarding handles PUT /api/users/onboarding.
func (h *UserHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	userID, ok := authUserID(w, r, req.UserID)
	if !ok {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, req.Onboarding.Updates()...)
	h.respondUser(w, r, user, err)
}

// Profile handles PATCH /api/users/profile. The body holds only the
// fields to change.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, 0)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		badBody(w, r, errBodyTooLarge)
		return
	}
	if err != nil {
		badBody(w, r, err)
		return
	}

	updates, err := store.DecodeProfileUpdates(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(updates) == 0 {
		writeError(w, http.StatusBadRequest, "No profile fields provided")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, updates...)
	h.respondUser(w, r, user, err)
}

type budgetRequest struct {
	UserID int64    `json:"userId"`
	Budget *float64 `json:"budget" validate:"required,gte=0"`
}

func (budgetRequest) fieldMessages() map[string]string {
	return map[string]string{"budget": "Budget must be a positive number"}
}

// Budget handles PUT /api/users/budget.
func (h *UserHandler) Budget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	userID, ok := authUserID(w, r, req.UserID)
	if !ok {
		return
	}
	if !validRequest(w, &req) {
		return
	}

	saved, err := h.users.SetBudget(r.Context(), userID, *req.Budget)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		serverError(w, r, "set budget failed", err)
		return
	}

	logging.L(r.Context()).Info("budget updated", zap.Float64("monthly_budget", saved))
	writeJSON(w, http.StatusOK, map[string]float64{"monthly_budget": saved})
}

func (h *UserHandler) respondUser(w http.ResponseWriter, r *http.Request, user store.User, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		serverError(w, r, "update profile failed", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

