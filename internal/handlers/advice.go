package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"staticfund-api/internal/advice"
	"staticfund-api/pkg/logging/logging"
)

// Advisor is satisfied by *advice.Service.
type Advisor interface {
	GetTips(ctx context.Context, devices []advice.Device) advice.TipsResult
	Completeness(ctx context.Context, devices []advice.Device) advice.CompletenessResult
	Interview(ctx context.Context, devices []advice.Device) *advice.InterviewQuestion
	OnboardQuestion(ctx context.Context, h advice.Household, devices []advice.Device) *advice.OnboardQuestion
	SolarQuotes(ctx context.Context, h advice.Household, devices []advice.Device) (advice.SolarQuotesResult, error)
	ScanDevice(ctx context.Context, image []byte, mimeType string) (advice.ScanResult, error)
}

// AdviceHandler serves the AI-backed endpoints under /api/gemini.
type AdviceHandler struct {
	advisor Advisor
}

func NewAdviceHandler(advisor Advisor) *AdviceHandler {
	return &AdviceHandler{advisor: advisor}
}

type devicesRequest struct {
	Devices []advice.Device `json:"devices" validate:"dive"`
}

func (devicesRequest) fieldMessages() map[string]string {
	return map[string]string{
		"name":          "Device name is required (max 255 characters)",
		"watts":         "Watts must be between 0 and 50000",
		"surge_watts":   "Invalid surge watts",
		"hours_per_day": "Hours must be between 0 and 24",
		"days_per_week": "Days must be between 0 and 7",
	}
}

type householdRequest struct {
	Household advice.Household `json:"household"`
	Devices   []advice.Device  `json:"devices" validate:"dive"`
}

func (householdRequest) fieldMessages() map[string]string {
	return devicesRequest{}.fieldMessages()
}

// decodeDevices reads {"devices": [...]}. When required, a missing list
// is a 400.
func decodeDevices(w http.ResponseWriter, r *http.Request, required bool) ([]advice.Device, bool) {
	var req devicesRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return nil, false
	}
	if required && req.Devices == nil {
		writeError(w, http.StatusBadRequest, "No device list provided")
		return nil, false
	}
	if !validRequest(w, &req) {
		return nil, false
	}
	return req.Devices, true
}

// Tips handles POST /api/gemini/tips. It always answers 200: when the
// model fails the offline tips are returned.
func (h *AdviceHandler) Tips(w http.ResponseWriter, r *http.Request) {
	devices, ok := decodeDevices(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.advisor.GetTips(r.Context(), devices))
}

// Completeness handles POST /api/gemini/completeness.
func (h *AdviceHandler) Completeness(w http.ResponseWriter, r *http.Request) {
	devices, ok := decodeDevices(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.advisor.Completeness(r.Context(), devices))
}

// Interview handles POST /api/gemini/interview. The body is JSON null when
// the model has nothing to ask.
func (h *AdviceHandler) Interview(w http.ResponseWriter, r *http.Request) {
	devices, ok := decodeDevices(w, r, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.advisor.Interview(r.Context(), devices))
}

// Onboard handles POST /api/gemini/onboard.
func (h *AdviceHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if !validRequest(w, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.advisor.OnboardQuestion(r.Context(), req.Household, req.Devices))
}

// SolarQuotes handles POST /api/gemini/solar-quotes.
func (h *AdviceHandler) SolarQuotes(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if len(req.Devices) == 0 {
		writeError(w, http.StatusBadRequest, "No device list provided")
		return
	}
	if !validRequest(w, &req) {
		return
	}

	result, err := h.advisor.SolarQuotes(r.Context(), req.Household, req.Devices)
	if err != nil {
		logging.L(r.Context()).Warn("solar quotes failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to generate solar quotes")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type scanRequest struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

// Scan handles POST /api/gemini/scan. The image may be plain base64 or a
// data URL.
func (h *AdviceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	}

	mimeType, image, err := decodeImage(req.ImageBase64, req.MimeType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Image is not valid base64")
		return
	}

	logger := logging.L(r.Context())
	logger.Info("scan request", zap.String("mime_type", mimeType), zap.Int("image_bytes", len(image)))

	result, err := h.advisor.ScanDevice(r.Context(), image, mimeType)
	if err != nil {
		logger.Warn("device scan failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to analyze image")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeImage(data, mimeType string) (string, []byte, error) {
	// data:image/png;base64,....
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		if meta, payload, ok := strings.Cut(rest, ","); ok {
			if mt, _, _ := strings.Cut(meta, ";"); mt != "" && mimeType == "" {
				mimeType = mt
			}
			data = payload
		}
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	image, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return "", nil, err
	}
	return mimeType, image, nil
}
