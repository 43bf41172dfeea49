package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/handler/dto"
	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/service"
)

// APIKeyHandler handles dashboard API key management. All routes require
// the Session and RequireVerified middleware.
type APIKeyHandler struct {
	svc    *service.APIKeyService
	logger *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(svc *service.APIKeyService, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /dashboard/keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	acct := auth.AccountFromContext(r.Context())
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "NO_SESSION", "Sign in required")
		return
	}

	keys, err := h.svc.ListKeys(r.Context(), acct.ID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToAPIKeyList(keys, h.svc.MaxActive()))
}

// Create handles POST /dashboard/keys. The plaintext key is returned once.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	acct := auth.AccountFromContext(r.Context())
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "NO_SESSION", "Sign in required")
		return
	}

	issued, err := h.svc.IssueKey(r.Context(), acct.ID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("api_key_issued",
		"key_id", issued.Key.ID,
		"key_prefix", issued.Key.KeyPrefix,
		"account_id", acct.ID,
	)

	writeJSON(w, http.StatusCreated, model.APIKeyCreateResponse{
		ID:        issued.Key.ID,
		Key:       issued.Token,
		KeyPrefix: issued.Key.KeyPrefix,
		Status:    issued.Key.Status,
		CreatedAt: issued.Key.CreatedAt,
	})
}

// Revoke handles DELETE /dashboard/keys/{keyID}. Revoking an unknown or
// already revoked key still returns 204.
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	acct := auth.AccountFromContext(r.Context())
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "NO_SESSION", "Sign in required")
		return
	}

	keyID := chi.URLParam(r, "keyID")
	if err := h.svc.RevokeKey(r.Context(), acct.ID, keyID); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("api_key_revoked", "key_id", keyID, "account_id", acct.ID)
	w.WriteHeader(http.StatusNoContent)
}
