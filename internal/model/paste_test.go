package model

import (
	"testing"
	"time"
)

func TestPasteType_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  PasteType
		want bool
	}{
		{PasteTypeJSON, true},
		{PasteTypeText, true},
		{PasteTypeCode, true},
		{PasteTypeMarkdown, true},
		{"", false},
		{"html", false},
		{"TEXT", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.typ), func(t *testing.T) {
			t.Parallel()
			if got := tt.typ.IsValid(); got != tt.want {
				t.Errorf("PasteType(%q).IsValid() = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestPaste_CachedRoundTrip(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.UTC)
	paste := &Paste{
		ID:        "AB12CD",
		Title:     "config",
		Content:   `{"a":1}`,
		Type:      PasteTypeJSON,
		Size:      7,
		AccountID: "acct-1",
		CreatedAt: created,
	}

	cached := paste.ToCachedPaste()
	if cached.Size != "7" {
		t.Errorf("cached Size = %s, want 7", cached.Size)
	}

	got := cached.ToPaste("AB12CD")
	if *got != *paste {
		t.Errorf("round trip = %+v, want %+v", got, paste)
	}
}

func TestPaste_ToResponse(t *testing.T) {
	t.Parallel()

	paste := &Paste{ID: "XYZ789", Title: "t", Content: "c", Type: PasteTypeText, Size: 1, AccountID: "acct"}
	resp := paste.ToResponse()

	if resp.ID != "XYZ789" || resp.Views != nil {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSession_IsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"future", now.Add(time.Minute), false},
		{"past", now.Add(-time.Minute), true},
		{"exact", now, true},
		{"no expiry", time.Time{}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &Session{ExpiresAt: tt.expires}
			if got := s.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}
