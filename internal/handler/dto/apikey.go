package dto

import "github.com/yuvipaste/yuvipaste/internal/model"

// APIKeyListResponse lists an account's keys with the active key quota.
type APIKeyListResponse struct {
	Data        []model.APIKeyResponse `json:"data"`
	ActiveCount int                    `json:"active_count"`
	MaxActive   int                    `json:"max_active"`
}

// ToAPIKeyList converts keys to their response form.
func ToAPIKeyList(keys []*model.APIKey, maxActive int) APIKeyListResponse {
	data := make([]model.APIKeyResponse, 0, len(keys))
	active := 0
	for _, k := range keys {
		if k.IsActive() {
			active++
		}
		data = append(data, k.ToResponse())
	}
	return APIKeyListResponse{Data: data, ActiveCount: active, MaxActive: maxActive}
}
