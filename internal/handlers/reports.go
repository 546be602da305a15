package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"staticfund-api/internal/store"
	"staticfund-api/pkg/logging/logging"
)

type UserLookup interface {
	GetUser(ctx context.Context, id int64) (store.User, error)
}

// ReportHandler accepts energy report requests. Reports are produced
// offline; the request is only recorded in the log.
type ReportHandler struct {
	users UserLookup
}

func NewReportHandler(users UserLookup) *ReportHandler {
	return &ReportHandler{users: users}
}

type reportRequest struct {
	UserID int64 `json:"user_id"`
}

// Request handles POST /api/reports/request.
func (h *ReportHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	if _, ok := authUserID(w, r, req.UserID); !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		serverError(w, r, "load user failed", err)
		return
	}

	logging.L(r.Context()).Info("report requested",
		zap.Int64("report_user_id", user.ID),
		zap.String("email", user.Email),
	)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Report requested successfully"})
}
