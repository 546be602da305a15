package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"staticfund-api/internal/store"
	"staticfund-api/pkg/logging/logging"
)

type QuotationStore interface {
	CreateQuotation(ctx context.Context, nq store.NewQuotation) (store.Quotation, error)
	GetQuotation(ctx context.Context, reference string) (store.Quotation, error)
	ListQuotations(ctx context.Context, userID int64) ([]store.Quotation, error)
}

// QuotationHandler serves solar installation quote requests.
type QuotationHandler struct {
	quotes QuotationStore
}

func NewQuotationHandler(quotes QuotationStore) *QuotationHandler {
	return &QuotationHandler{quotes: quotes}
}

type quotationRequest struct {
	PackageTier    string          `json:"package_tier" validate:"required,oneof=BASIC STANDARD PREMIUM"`
	PackageDetails json.RawMessage `json:"package_details"`
	DevicesSummary string          `json:"devices_summary" validate:"max=2000"`
	TotalCost      string          `json:"total_cost" validate:"max=100"`
}

func (quotationRequest) fieldMessages() map[string]string {
	return map[string]string{
		"package_tier":    "Package tier must be BASIC, STANDARD or PREMIUM",
		"devices_summary": "Devices summary too long",
		"total_cost":      "Total cost too long",
	}
}

// Create handles POST /api/quotations for the authenticated user.
func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, 0)
	if !ok {
		return
	}

	var req quotationRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if !validRequest(w, &req) {
		return
	}
	if len(req.PackageDetails) > 0 && !json.Valid(req.PackageDetails) {
		writeError(w, http.StatusBadRequest, "Package details must be JSON")
		return
	}

	q, err := h.quotes.CreateQuotation(r.Context(), store.NewQuotation{
		UserID:         userID,
		PackageTier:    req.PackageTier,
		PackageDetails: req.PackageDetails,
		DevicesSummary: req.DevicesSummary,
		TotalCost:      req.TotalCost,
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		serverError(w, r, "create quotation failed", err)
		return
	}

	logging.L(r.Context()).Info("quotation requested",
		zap.String("reference", q.Reference),
		zap.String("package_tier", q.PackageTier),
	)
	writeJSON(w, http.StatusCreated, q)
}

// List handles GET /api/quotations[?userId=].
func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	requested, err := queryID(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	userID, ok := authUserID(w, r, requested)
	if !ok {
		return
	}

	quotes, err := h.quotes.ListQuotations(r.Context(), userID)
	if err != nil {
		serverError(w, r, "list quotations failed", err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

// Get handles GET /api/quotations/{reference}. Another user's quotation
// is reported as not found.
func (h *QuotationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(w, r, 0)
	if !ok {
		return
	}

	q, err := h.quotes.GetQuotation(r.Context(), chi.URLParam(r, "reference"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && q.UserID != userID) {
		writeError(w, http.StatusNotFound, "Quotation not found")
		return
	}
	if err != nil {
		serverError(w, r, "get quotation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
