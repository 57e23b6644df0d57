package dto

import "admin-dashboard-bff/internal/entity"

type DocumentListResponse struct {
	Documents     []entity.Document `json:"documents"`
	IsLoading     bool              `json:"isLoading"`
	IsInitialized bool              `json:"isInitialized"`
	Error         string            `json:"error,omitempty"`
}
