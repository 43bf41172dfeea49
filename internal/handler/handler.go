// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yuvipaste/yuvipaste/internal/handler/dto"
	"github.com/yuvipaste/yuvipaste/internal/service"
)

// Handler serves the root and fallback endpoints.
type Handler struct {
	version string
}

// New creates a new Handler instance.
func New(version string) *Handler {
	return &Handler{version: version}
}

// Hello reports the service name and version.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "Hello from YUVI Paste!",
		"version": h.version,
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: dto.ErrorDetail{Code: code, Message: message},
	})
}

// newValidator returns a validator that reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldCodes maps request fields to the error code reported when they fail
// validation. Other fields report VALIDATION_ERROR.
var fieldCodes = map[string]string{
	"email":   "INVALID_EMAIL",
	"code":    "INVALID_CODE",
	"content": "EMPTY_CONTENT",
	"type":    "INVALID_PASTE_TYPE",
}

// decodeJSON decodes the request body into dst and validates it. On failure
// it writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}

	if err := v.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			code, ok := fieldCodes[fe.Field()]
			if !ok {
				code = "VALIDATION_ERROR"
			}
			writeError(w, http.StatusBadRequest, code, fmt.Sprintf("Field %q failed %q validation", fe.Field(), fe.Tag()))
			return false
		}
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDomain):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_DOMAIN", "Email domain is not allowed")
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password is too short")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrNoSession):
		writeError(w, http.StatusUnauthorized, "NO_SESSION", "Sign in required")
	case errors.Is(err, service.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "INVALID_CODE", "Invalid verification code")
	case errors.Is(err, service.ErrKeyQuotaExceeded):
		writeError(w, http.StatusConflict, "KEY_QUOTA_EXCEEDED", "Active API key limit reached")
	case errors.Is(err, service.ErrPasteQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "PASTE_QUOTA_EXCEEDED", "Paste limit reached")
	case errors.Is(err, service.ErrInvalidKey):
		writeError(w, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid or missing API key")
	case errors.Is(err, service.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, "EMPTY_CONTENT", "Content is required")
	case errors.Is(err, service.ErrInvalidPasteType):
		writeError(w, http.StatusBadRequest, "INVALID_PASTE_TYPE", "Type must be one of json, text, code, markdown")
	case errors.Is(err, service.ErrContentTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "CONTENT_TOO_LARGE", "Content exceeds the maximum paste size")
	case errors.Is(err, service.ErrTitleTooLong):
		writeError(w, http.StatusBadRequest, "TITLE_TOO_LONG",
			fmt.Sprintf("Title must be at most %d characters", service.MaxTitleLength))
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
