package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"staticfund-api/internal/auth"
	"staticfund-api/pkg/logging/logging"
)

var errBodyTooLarge = errors.New("request body too large")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.DefaultLogger().Warn("encode response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs err and answers with a generic 500.
func serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.L(r.Context()).Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst as is.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	var maxErr *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &maxErr):
		return errBodyTooLarge
	default:
		return err
	}
}

// badBody answers a body decode failure.
func badBody(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	logging.L(r.Context()).Info("invalid request body", zap.Error(err))
	writeError(w, http.StatusBadRequest, "Invalid JSON body")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// messager supplies the client-facing message for a failing field.
type messager interface {
	fieldMessages() map[string]string
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validationErrorBody struct {
	Error   string       `json:"error"`
	Details []fieldError `json:"details"`
}

// validRequest validates req and writes a 400 with per-field details when
// it fails.
func validRequest(w http.ResponseWriter, req any) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "Validation failed")
		return false
	}

	var messages map[string]string
	if m, ok := req.(messager); ok {
		messages = m.fieldMessages()
	}

	details := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = "Invalid value (" + fe.Tag() + ")"
		}
		details = append(details, fieldError{Field: path, Message: msg})
	}
	writeJSON(w, http.StatusBadRequest, validationErrorBody{Error: "Validation failed", Details: details})
	return false
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// authUserID resolves the user a request acts on. requested is the id the
// client named, 0 when absent. Acting on another user is refused.
func authUserID(w http.ResponseWriter, r *http.Request, requested int64) (int64, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token required")
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		writeError(w, http.StatusForbidden, "Invalid or expired token")
		return 0, false
	}
	if requested != 0 && requested != id {
		writeError(w, http.StatusForbidden, "Not allowed to act on another user")
		return 0, false
	}
	return id, true
}

// queryID parses a positive integer query parameter; 0 means absent.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
