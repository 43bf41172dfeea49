package handler

import (
	"net/http"
	"testing"

	"github.com/yuvipaste/yuvipaste/internal/handler/dto"
	"github.com/yuvipaste/yuvipaste/internal/middleware"
)

func TestAuthHandler_SessionLifecycle(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/register", `{"email":"A@Gmail.com","password":"`+testPassword+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.Value == "" {
		t.Fatalf("session cookie = %+v, want HttpOnly cookie with a value", cookie)
	}

	var registered dto.SessionResponse
	decodeBody(t, rec, &registered)
	if registered.SessionToken != cookie.Value {
		t.Errorf("body token and cookie differ")
	}
	if registered.Account.Email != "a@gmail.com" {
		t.Errorf("email = %q, want normalized a@gmail.com", registered.Account.Email)
	}
	if registered.Account.Verified {
		t.Error("new account is verified")
	}
	if registered.ExpiresAt == nil {
		t.Error("expires_at missing")
	}
	token := registered.SessionToken

	rec = app.do(t, http.MethodGet, "/auth/session", "", "Cookie", middleware.SessionCookieName+"="+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("session via cookie status = %d", rec.Code)
	}

	rec = app.do(t, http.MethodGet, "/dashboard/keys", "", bearer(token)...)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unverified dashboard status = %d, want 403", rec.Code)
	}
	if code := errorCode(t, rec); code != "ACCOUNT_UNVERIFIED" {
		t.Errorf("code = %q, want ACCOUNT_UNVERIFIED", code)
	}

	rec = app.do(t, http.MethodPost, "/auth/verify", `{"code":"000000"}`, bearer(token)...)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("verify 000000 status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_CODE" {
		t.Errorf("code = %q, want INVALID_CODE", code)
	}

	rec = app.do(t, http.MethodPost, "/auth/verify", `{"code":"654321"}`, bearer(token)...)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", rec.Code, rec.Body.String())
	}
	var verified dto.AccountResponse
	decodeBody(t, rec, &verified)
	if !verified.Account.Verified {
		t.Error("account not verified after valid code")
	}

	rec = app.do(t, http.MethodGet, "/dashboard/keys", "", bearer(token)...)
	if rec.Code != http.StatusOK {
		t.Fatalf("verified dashboard status = %d", rec.Code)
	}

	rec = app.do(t, http.MethodPost, "/auth/logout", "", bearer(token)...)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", rec.Code)
	}

	rec = app.do(t, http.MethodGet, "/auth/session", "", bearer(token)...)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("session after logout status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "NO_SESSION" {
		t.Errorf("code = %q, want NO_SESSION", code)
	}
}

func TestAuthHandler_RegisterErrors(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register(t, "taken@gmail.com")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"wrong domain", `{"email":"a@yahoo.com","password":"` + testPassword + `"}`, http.StatusUnprocessableEntity, "INVALID_DOMAIN"},
		{"lookalike domain", `{"email":"a@notgmail.com","password":"` + testPassword + `"}`, http.StatusUnprocessableEntity, "INVALID_DOMAIN"},
		{"missing email", `{"password":"` + testPassword + `"}`, http.StatusBadRequest, "INVALID_EMAIL"},
		{"missing password", `{"email":"b@gmail.com"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"duplicate", `{"email":"Taken@gmail.com","password":"` + testPassword + `"}`, http.StatusConflict, "EMAIL_TAKEN"},
		{"malformed", `{"email":`, http.StatusBadRequest, "INVALID_JSON"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := app.do(t, http.MethodPost, "/auth/register", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestAuthHandler_RegisterShortPassword(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/register", `{"email":"a@gmail.com","password":"pw"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	rec = app.do(t, http.MethodPost, "/auth/login", `{"email":"a@gmail.com","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.register(t, "user@gmail.com")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"ok", `{"email":"user@gmail.com","password":"` + testPassword + `"}`, http.StatusOK, ""},
		{"case insensitive email", `{"email":"USER@gmail.com","password":"` + testPassword + `"}`, http.StatusOK, ""},
		{"unknown account", `{"email":"ghost@gmail.com","password":"` + testPassword + `"}`, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"wrong password", `{"email":"user@gmail.com","password":"not the password"}`, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := app.do(t, http.MethodPost, "/auth/login", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if code := errorCode(t, rec); code != tt.wantCode {
					t.Errorf("code = %q, want %q", code, tt.wantCode)
				}
				return
			}
			var resp dto.SessionResponse
			decodeBody(t, rec, &resp)
			if resp.SessionToken == "" {
				t.Error("login returned no session token")
			}
		})
	}
}

func TestAuthHandler_VerifyRequiresSession(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	rec := app.do(t, http.MethodPost, "/auth/verify", `{"code":"654321"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "NO_SESSION" {
		t.Errorf("code = %q, want NO_SESSION", code)
	}
}

func TestAuthHandler_VerifyMalformedCode(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	token := app.register(t, "c@gmail.com")

	for _, code := range []string{"12345", "1234567", "abcdef"} {
		rec := app.do(t, http.MethodPost, "/auth/verify", `{"code":"`+code+`"}`, bearer(token)...)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code %q: status = %d, want 400", code, rec.Code)
		}
	}
}

func TestAuthHandler_LogoutWithoutSession(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	rec := app.do(t, http.MethodPost, "/auth/logout", "")

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
