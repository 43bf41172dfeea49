package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/metrics"
	"github.com/yuvipaste/yuvipaste/internal/model"
	"github.com/yuvipaste/yuvipaste/internal/repository"
)

// IdentityConfig configures an IdentityService.
type IdentityConfig struct {
	// AllowedDomains lists the email domains accepted at registration.
	AllowedDomains []string
	// SessionTTL bounds session lifetime. Zero means sessions never expire.
	SessionTTL time.Duration
	// Hasher hashes passwords. Defaults to auth.DefaultParams.
	Hasher *auth.Hasher
	// MinPasswordLength rejects shorter passwords, in bytes. Zero accepts
	// any password.
	MinPasswordLength int
}

// Session is an opened session: the account plus the opaque token that
// identifies it. The token is only available here.
type Session struct {
	Account   *model.Account
	Token     string
	ExpiresAt time.Time
}

// IdentityService handles registration, login, OTP verification and
// session lifecycle.
type IdentityService struct {
	accounts    AccountStore
	sessions    SessionStore
	hasher      *auth.Hasher
	domains     []string
	sessionTTL  time.Duration
	minPassword int
	metrics     metrics.Recorder
	now         func() time.Time
}

// NewIdentityService creates a new identity service.
func NewIdentityService(accounts AccountStore, sessions SessionStore, cfg IdentityConfig, recorder metrics.Recorder) *IdentityService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultParams)
	}
	domains := make([]string, 0, len(cfg.AllowedDomains))
	for _, d := range cfg.AllowedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}
	return &IdentityService{
		accounts:    accounts,
		sessions:    sessions,
		hasher:      hasher,
		domains:     domains,
		sessionTTL:  cfg.SessionTTL,
		minPassword: cfg.MinPasswordLength,
		metrics:     recorder,
		now:         now,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and opens a session for it.
// Nothing is persisted when validation fails.
func (s *IdentityService) Register(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if !s.domainAllowed(email) {
		return nil, ErrInvalidDomain
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < s.minPassword {
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := &model.Account{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.accounts.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.metrics.IncAccountRegistered()

	return s.openSession(ctx, acct)
}

// Authenticate checks credentials and opens a new session. Existing
// sessions for the account stay valid.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	acct, err := s.accounts.GetAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.metrics.IncAuthFailure(metrics.AuthLogin)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	ok, err := s.hasher.Verify(password, acct.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.metrics.IncAuthFailure(metrics.AuthLogin)
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, acct)
}

// VerifyOTP marks the session's account verified. Any six-digit code
// other than 000000 is accepted. Verifying an already verified account
// succeeds and leaves it unchanged.
func (s *IdentityService) VerifyOTP(ctx context.Context, token, code string) (*model.Account, error) {
	if err := auth.ValidateOTP(code); err != nil {
		s.metrics.IncAuthFailure(metrics.AuthOTP)
		return nil, ErrInvalidCode
	}

	sess, err := s.resolveSession(ctx, token)
	if err != nil {
		return nil, err
	}

	acct, err := s.accounts.GetAccountByID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if acct.Verified {
		return acct, nil
	}

	acct, err = s.accounts.MarkAccountVerified(ctx, acct.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	s.metrics.IncAccountVerified()
	return acct, nil
}

// CurrentSession returns the account bound to token, or nil if there is
// no live session.
func (s *IdentityService) CurrentSession(ctx context.Context, token string) (*model.Account, error) {
	sess, err := s.resolveSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}

	acct, err := s.accounts.GetAccountByID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return acct, nil
}

// EndSession invalidates token. Ending a missing session is a no-op.
func (s *IdentityService) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, auth.HashSessionToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *IdentityService) openSession(ctx context.Context, acct *model.Account) (*Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	created := s.now()
	sess := &model.Session{
		TokenHash: auth.HashSessionToken(token),
		AccountID: acct.ID,
		CreatedAt: created,
	}
	if s.sessionTTL > 0 {
		sess.ExpiresAt = created.Add(s.sessionTTL)
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &Session{Account: acct, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

func (s *IdentityService) resolveSession(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	sess, err := s.sessions.GetSession(ctx, auth.HashSessionToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.IsExpired(s.now()) {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (s *IdentityService) domainAllowed(email string) bool {
	for _, d := range s.domains {
		if strings.HasSuffix(email, "@"+d) {
			return true
		}
	}
	return false
}

func validateEmail(email string) error {
	if strings.Count(email, "@") != 1 || strings.HasPrefix(email, "@") {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}
