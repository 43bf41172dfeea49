package dto

import "github.com/yuvipaste/yuvipaste/internal/model"

// CreatePasteRequest is the body of POST /api/paste. Title and type are
// optional; the service applies defaults.
type CreatePasteRequest struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content" validate:"required"`
	Type    string `json:"type,omitempty" validate:"omitempty,oneof=json text code markdown"`
}

// PasteListResponse lists an account's pastes with its quota.
type PasteListResponse struct {
	Data  []model.PasteResponse `json:"data"`
	Count int                   `json:"count"`
	Limit int                   `json:"limit"`
}

// ToPasteList converts pastes to their response form.
func ToPasteList(pastes []*model.Paste, limit int) PasteListResponse {
	data := make([]model.PasteResponse, 0, len(pastes))
	for _, p := range pastes {
		data = append(data, p.ToResponse())
	}
	return PasteListResponse{Data: data, Count: len(data), Limit: limit}
}
