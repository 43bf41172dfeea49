package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/handler/dto"
	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/service"
)

// PasteHandler handles paste ingestion, listing and public reads.
type PasteHandler struct {
	gateway  *service.Gateway
	pastes   *service.PasteService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewPasteHandler creates a new PasteHandler.
func NewPasteHandler(gateway *service.Gateway, pastes *service.PasteService, logger *slog.Logger) *PasteHandler {
	return &PasteHandler{
		gateway:  gateway,
		pastes:   pastes,
		logger:   logger,
		validate: newValidator(),
	}
}

// Create handles POST /api/paste. Requires the APIKey middleware.
func (h *PasteHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid or missing API key")
		return
	}

	var req dto.CreatePasteRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	paste, err := h.gateway.Ingest(r.Context(), authCtx, service.PasteInput{
		Title:   req.Title,
		Content: req.Content,
		Type:    model.PasteType(req.Type),
	})
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("paste_created",
		"paste_id", paste.ID,
		"account_id", paste.AccountID,
		"key_id", authCtx.KeyID,
		"type", paste.Type,
		"size", paste.Size,
	)

	writeJSON(w, http.StatusCreated, paste.ToResponse())
}

// ListOwn handles GET /api/v1/pastes for the API key's owner.
func (h *PasteHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, auth.AccountIDFromContext(r.Context()))
}

// ListDashboard handles GET /dashboard/pastes for the session account.
func (h *PasteHandler) ListDashboard(w http.ResponseWriter, r *http.Request) {
	acct := auth.AccountFromContext(r.Context())
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "NO_SESSION", "Sign in required")
		return
	}
	h.list(w, r, acct.ID)
}

func (h *PasteHandler) list(w http.ResponseWriter, r *http.Request, accountID string) {
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid or missing API key")
		return
	}

	pastes, err := h.pastes.ListPastes(r.Context(), accountID)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	resp := dto.ToPasteList(pastes, h.gateway.MaxPastes())
	if h.pastes.TracksViews() {
		for i := range resp.Data {
			views, err := h.pastes.Views(r.Context(), resp.Data[i].ID)
			if err != nil {
				h.logger.Warn("view_count_failed", "paste_id", resp.Data[i].ID, "error", err)
				continue
			}
			resp.Data[i].Views = &views
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /p/{id}.
func (h *PasteHandler) Get(w http.ResponseWriter, r *http.Request) {
	paste, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if paste == nil {
		writeError(w, http.StatusNotFound, "PASTE_NOT_FOUND", "Paste not found")
		return
	}

	resp := paste.ToResponse()
	if h.pastes.TracksViews() {
		views, err := h.pastes.RecordView(r.Context(), paste.ID)
		if err != nil {
			h.logger.Warn("view_count_failed", "paste_id", paste.ID, "error", err)
		} else {
			resp.Views = &views
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Raw handles GET /raw/{id}, serving the content as plain text.
func (h *PasteHandler) Raw(w http.ResponseWriter, r *http.Request) {
	paste, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if paste == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "Not Found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, paste.Content)
}

// lookup resolves the {id} URL parameter. A nil paste means not found; ok
// is false when an error response has already been written.
func (h *PasteHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Paste, bool) {
	id := chi.URLParam(r, "id")
	start := time.Now()

	paste, err := h.pastes.GetPaste(r.Context(), id)
	duration := time.Since(start)

	if err != nil {
		h.logger.Error("paste_read_error",
			"paste_id", id,
			"error", err,
			"duration_ms", float64(duration.Microseconds())/1000,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return nil, false
	}
	if paste == nil {
		h.logger.Info("paste_not_found",
			"paste_id", id,
			"duration_ms", float64(duration.Microseconds())/1000,
		)
	}
	return paste, true
}
