package auth

import (
	"strings"
	"testing"
)

var testHasher = NewHasher(FastParams)

func TestGenerateAPIKey_Format(t *testing.T) {
	t.Parallel()

	key, err := GenerateAPIKey(testHasher)
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}

	if !strings.HasPrefix(key.Plaintext, "yuvi_") {
		t.Errorf("Key should start with yuvi_, got: %s", key.Plaintext)
	}
	if !ValidateKeyFormat(key.Plaintext) {
		t.Errorf("Generated key should pass format validation: %s", key.Plaintext)
	}
	if len(key.Prefix) != KeyPrefixLen {
		t.Errorf("Prefix should be %d chars, got: %d", KeyPrefixLen, len(key.Prefix))
	}
	if !strings.HasPrefix(key.Hash, "$argon2id$v=") {
		t.Errorf("Hash should be in PHC format, got: %s", key.Hash)
	}
	if !strings.Contains(key.Plaintext, key.Prefix) {
		t.Error("Plaintext should contain prefix")
	}

	match, err := testHasher.Verify(key.Plaintext, key.Hash)
	if err != nil || !match {
		t.Errorf("Hash should verify plaintext: match=%v err=%v", match, err)
	}
}

func TestGenerateAPIKey_UniqueSecrets(t *testing.T) {
	t.Parallel()

	const numKeys = 50
	secrets := make(map[string]bool, numKeys)

	for i := 0; i < numKeys; i++ {
		key, err := GenerateAPIKey(testHasher)
		if err != nil {
			t.Fatalf("GenerateAPIKey failed: %v", err)
		}

		parsed, err := ParseAPIKey(key.Plaintext)
		if err != nil {
			t.Fatalf("ParseAPIKey failed: %v", err)
		}
		if parsed.Prefix != key.Prefix {
			t.Errorf("parsed prefix %s, want %s", parsed.Prefix, key.Prefix)
		}

		if secrets[parsed.Secret] {
			t.Errorf("Duplicate secret found at iteration %d", i)
		}
		secrets[parsed.Secret] = true
	}
}

func TestParseAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		key        string
		wantPrefix string
		wantErr    error
	}{
		{
			name:       "valid key",
			key:        "yuvi_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
			wantPrefix: "abc123",
		},
		{
			name:    "wrong scheme",
			key:     "pk_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
			wantErr: ErrInvalidKeyFormat,
		},
		{
			name:    "uppercase scheme",
			key:     "YUVI_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
			wantErr: ErrInvalidKeyFormat,
		},
		{
			name:    "short prefix",
			key:     "yuvi_abc_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
			wantErr: ErrInvalidKeyFormat,
		},
		{
			name:    "short secret",
			key:     "yuvi_abc123_4f8d2e1b",
			wantErr: ErrInvalidKeyFormat,
		},
		{
			name:    "long secret",
			key:     "yuvi_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1bx",
			wantErr: ErrInvalidKeyFormat,
		},
		{
			name:    "empty string",
			key:     "",
			wantErr: ErrInvalidKeyFormat,
		},
		{
			name:    "scheme only",
			key:     "yuvi_",
			wantErr: ErrInvalidKeyFormat,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed, err := ParseAPIKey(tt.key)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("ParseAPIKey(%q) error = %v, want %v", tt.key, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAPIKey(%q) unexpected error: %v", tt.key, err)
			}
			if parsed.Prefix != tt.wantPrefix {
				t.Errorf("Prefix = %s, want %s", parsed.Prefix, tt.wantPrefix)
			}
		})
	}
}

func TestValidateKeyFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid key", "yuvi_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", true},
		{"not a key", "not-a-key", false},
		{"empty", "", false},
		{"uppercase hex", "yuvi_ABC123_4F8D2E1B9C7A5F3D2E1B9C7A5F3D2E1B", false},
		{"trailing space", "yuvi_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b ", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidateKeyFormat(tt.key); got != tt.want {
				t.Errorf("ValidateKeyFormat(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
