package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/handler/dto"
	"github.com/yuvipaste/yuvipaste/internal/middleware"
	"github.com/yuvipaste/yuvipaste/internal/service"
)

// AuthHandler handles account registration, login and sessions.
type AuthHandler struct {
	svc          *service.IdentityService
	logger       *slog.Logger
	validate     *validator.Validate
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie sets the Secure
// attribute on the session cookie.
func NewAuthHandler(svc *service.IdentityService, logger *slog.Logger, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		svc:          svc,
		logger:       logger,
		validate:     newValidator(),
		secureCookie: secureCookie,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	sess, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("account_registered", "account_id", sess.Account.ID)
	h.writeSession(w, http.StatusCreated, sess)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	sess, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "No account with that email")
			return
		}
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("session_opened", "account_id", sess.Account.ID)
	h.writeSession(w, http.StatusOK, sess)
}

// Verify handles POST /auth/verify. Requires the Session middleware.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	acct, err := h.svc.VerifyOTP(r.Context(), middleware.SessionTokenFromContext(r.Context()), req.Code)
	if err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	h.logger.Info("account_verified", "account_id", acct.ID)
	writeJSON(w, http.StatusOK, dto.AccountResponse{Account: acct.ToResponse()})
}

// Session handles GET /auth/session. Requires the Session middleware.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	acct := auth.AccountFromContext(r.Context())
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "NO_SESSION", "Sign in required")
		return
	}
	writeJSON(w, http.StatusOK, dto.AccountResponse{Account: acct.ToResponse()})
}

// Logout handles POST /auth/logout. It succeeds without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.EndSession(r.Context(), middleware.SessionToken(r)); err != nil {
		handleServiceError(h.logger, w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, status int, sess *service.Session) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	resp := dto.SessionResponse{
		Account:      sess.Account.ToResponse(),
		SessionToken: sess.Token,
	}
	if !sess.ExpiresAt.IsZero() {
		cookie.Expires = sess.ExpiresAt
		expires := sess.ExpiresAt
		resp.ExpiresAt = &expires
	}

	http.SetCookie(w, cookie)
	writeJSON(w, status, resp)
}
