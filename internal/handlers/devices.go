package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"staticfund-api/internal/store"
	"staticfund-api/pkg/logging/logging"
)

type DeviceStore interface {
	ListDevices(ctx context.Context, userID int64) ([]store.Device, error)
	CreateDevice(ctx context.Context, nd store.NewDevice) (store.Device, error)
	UpdateDevice(ctx context.Context, id int64, du store.DeviceUpdate) (store.Device, error)
	DeleteDevice(ctx context.Context, id int64) error
	CreateUsageLog(ctx context.Context, deviceID int64, hoursPerDay, daysPerWeek float64) (store.UsageLog, error)
	ListUsage(ctx context.Context) ([]store.UsageEntry, error)
}

// DeviceHandler serves device inventory and usage logging.
type DeviceHandler struct {
	devices DeviceStore
}

func NewDeviceHandler(devices DeviceStore) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

type deviceFields struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Watts      float64 `json:"watts" validate:"min=1,max=50000"`
	SurgeWatts float64 `json:"surge_watts" validate:"min=0,max=100000"`
	ImageURL   string  `json:"image_url"`
}

func (deviceFields) fieldMessages() map[string]string {
	return map[string]string{
		"name":        "Device name is required (max 255 characters)",
		"watts":       "Watts must be between 1 and 50000",
		"surge_watts": "Invalid surge watts",
		"user_id":     "User ID is required",
	}
}

type createDeviceRequest struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Watts      float64 `json:"watts" validate:"min=1,max=50000"`
	SurgeWatts float64 `json:"surge_watts" validate:"min=0,max=100000"`
	ImageURL   string  `json:"image_url"`
	UserID     int64   `json:"user_id" validate:"required,gt=0"`
}

func (createDeviceRequest) fieldMessages() map[string]string {
	return deviceFields{}.fieldMessages()
}

type usageRequest struct {
	DeviceID    int64    `json:"device_id" validate:"required,gt=0"`
	HoursPerDay *float64 `json:"hours_per_day" validate:"required,gte=0,lte=24"`
	DaysPerWeek *float64 `json:"days_per_week" validate:"omitempty,gte=1,lte=7"`
}

func (usageRequest) fieldMessages() map[string]string {
	return map[string]string{
		"device_id":     "Device ID is required",
		"hours_per_day": "Hours must be between 0 and 24",
		"days_per_week": "Days must be between 1 and 7",
	}
}

// List handles GET /api/devices?userId=.
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "userId")
	if err != nil || userID == 0 {
		writeJSON(w, http.StatusBadRequest, validationErrorBody{
			Error:   "Validation failed",
			Details: []fieldError{{Field: "userId", Message: "Valid User ID is required"}},
		})
		return
	}

	devices, err := h.devices.ListDevices(r.Context(), userID)
	if err != nil {
		serverError(w, r, "list devices failed", err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// Create handles POST /api/devices.
func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if !validRequest(w, &req) {
		return
	}

	device, err := h.devices.CreateDevice(r.Context(), store.NewDevice{
		UserID:     req.UserID,
		Name:       req.Name,
		Watts:      req.Watts,
		SurgeWatts: req.SurgeWatts,
		ImageURL:   req.ImageURL,
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		serverError(w, r, "create device failed", err)
		return
	}

	logging.L(r.Context()).Info("device created",
		zap.Int64("device_id", device.ID),
		zap.Int64("user_id", device.UserID),
		zap.Float64("watts", device.Watts),
	)
	writeJSON(w, http.StatusOK, device)
}

// Update handles PUT /api/devices/{id}.
func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	var req deviceFields
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if !validRequest(w, &req) {
		return
	}

	device, err := h.devices.UpdateDevice(r.Context(), id, store.DeviceUpdate{
		Name:       req.Name,
		Watts:      req.Watts,
		SurgeWatts: req.SurgeWatts,
		ImageURL:   req.ImageURL,
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Device not found")
		return
	}
	if err != nil {
		serverError(w, r, "update device failed", err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// Delete handles DELETE /api/devices/{id}.
func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	err := h.devices.DeleteDevice(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Device not found")
		return
	}
	if err != nil {
		serverError(w, r, "delete device failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Device deleted successfully"})
}

// LogUsage handles POST /api/usage. Days default to 7.
func (h *DeviceHandler) LogUsage(w http.ResponseWriter, r *http.Request) {
	var req usageRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if !validRequest(w, &req) {
		return
	}

	days := 7.0
	if req.DaysPerWeek != nil {
		days = *req.DaysPerWeek
	}

	log, err := h.devices.CreateUsageLog(r.Context(), req.DeviceID, *req.HoursPerDay, days)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Device not found")
		return
	}
	if err != nil {
		serverError(w, r, "log usage failed", err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

// ListUsage handles GET /api/usage.
func (h *DeviceHandler) ListUsage(w http.ResponseWriter, r *http.Request) {
	entries, err := h.devices.ListUsage(r.Context())
	if err != nil {
		serverError(w, r, "list usage failed", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func deviceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid device id")
		return 0, false
	}
	return id, true
}
