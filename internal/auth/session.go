package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const sessionTokenBytes = 32

// GenerateSessionToken returns a random URL-safe session token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSessionToken returns the storage key for a session token.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// OTPLength is the number of digits in a verification code.
const OTPLength = 6

// rejectedOTP is never accepted, whatever the session state.
const rejectedOTP = "000000"

// ErrInvalidOTP indicates a malformed or rejected verification code.
var ErrInvalidOTP = errors.New("invalid verification code")

// ValidateOTP checks a verification code. Delivery is simulated, so any
// six-digit code other than the rejected sentinel is accepted.
func ValidateOTP(code string) error {
	if len(code) != OTPLength || code == rejectedOTP {
		return ErrInvalidOTP
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return ErrInvalidOTP
		}
	}
	return nil
}
