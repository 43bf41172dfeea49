// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/yuvipaste/yuvipaste/internal/model"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CredentialsRequest is the body of POST /auth/register and POST /auth/login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

// VerifyRequest is the body of POST /auth/verify.
type VerifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// SessionResponse is returned when a session is opened.
type SessionResponse struct {
	Account      model.AccountResponse `json:"account"`
	SessionToken string                `json:"session_token"`
	ExpiresAt    *time.Time            `json:"expires_at,omitempty"`
}

// AccountResponse wraps the current account.
type AccountResponse struct {
	Account model.AccountResponse `json:"account"`
}
