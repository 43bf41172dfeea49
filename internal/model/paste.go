package model

import (
	"strconv"
	"time"
)

// PasteType classifies paste content. The set is closed.
type PasteType string

// Paste types.
const (
	PasteTypeJSON     PasteType = "json"
	PasteTypeText     PasteType = "text"
	PasteTypeCode     PasteType = "code"
	PasteTypeMarkdown PasteType = "markdown"
)

// ValidPasteTypes contains all accepted paste types.
var ValidPasteTypes = []PasteType{PasteTypeJSON, PasteTypeText, PasteTypeCode, PasteTypeMarkdown}

// IsValid reports whether t belongs to the closed set of paste types.
func (t PasteType) IsValid() bool {
	switch t {
	case PasteTypeJSON, PasteTypeText, PasteTypeCode, PasteTypeMarkdown:
		return true
	}
	return false
}

// DefaultPasteTitle is used when a paste is created without a title.
const DefaultPasteTitle = "Untitled"

// Paste is an immutable piece of user-owned content with a short public ID.
type Paste struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      PasteType `json:"type"`
	Size      int       `json:"size"` // Bytes
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CachedPaste is the Redis hash representation of a paste.
type CachedPaste struct {
	Title     string `redis:"title"`
	Content   string `redis:"content"`
	Type      string `redis:"type"`
	Size      string `redis:"size"`
	AccountID string `redis:"account_id"`
	CreatedAt string `redis:"created_at"` // Unix nanoseconds
}

// ToCachedPaste converts a Paste to its cached form.
func (p *Paste) ToCachedPaste() *CachedPaste {
	return &CachedPaste{
		Title:     p.Title,
		Content:   p.Content,
		Type:      string(p.Type),
		Size:      strconv.Itoa(p.Size),
		AccountID: p.AccountID,
		CreatedAt: strconv.FormatInt(p.CreatedAt.UnixNano(), 10),
	}
}

// ToPaste rebuilds a Paste from its cached form.
func (c *CachedPaste) ToPaste(id string) *Paste {
	size, _ := strconv.Atoi(c.Size)
	nanos, _ := strconv.ParseInt(c.CreatedAt, 10, 64)
	return &Paste{
		ID:        id,
		Title:     c.Title,
		Content:   c.Content,
		Type:      PasteType(c.Type),
		Size:      size,
		AccountID: c.AccountID,
		CreatedAt: time.Unix(0, nanos).UTC(),
	}
}

// PasteResponse is the public view of a paste.
type PasteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      PasteType `json:"type"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Views     *int64    `json:"views,omitempty"`
}

// ToResponse converts a Paste to PasteResponse.
func (p *Paste) ToResponse() PasteResponse {
	return PasteResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Type:      p.Type,
		Size:      p.Size,
		CreatedAt: p.CreatedAt,
	}
}
