// Package service provides business logic for the application.
package service

import (
	"errors"
	"fmt"
)

// Service errors. Handlers map these to HTTP responses with errors.Is.
var (
	ErrInvalidDomain      = errors.New("email domain not allowed")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password too short")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrInvalidKey         = errors.New("invalid API key")

	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrKeyQuotaExceeded   = fmt.Errorf("active API key limit reached: %w", ErrQuotaExceeded)
	ErrPasteQuotaExceeded = fmt.Errorf("paste limit reached: %w", ErrQuotaExceeded)

	ErrEmptyContent     = errors.New("content is required")
	ErrInvalidPasteType = errors.New("invalid paste type")
	ErrContentTooLarge  = errors.New("content too large")
	ErrTitleTooLong     = errors.New("title too long")
)
