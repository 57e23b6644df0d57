package dto

import "admin-dashboard-bff/internal/entity"

type SwitchWorkspaceRequest struct {
	Slug string `json:"slug" validate:"required"`
}

type CreateOrgRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description" validate:"omitempty"`
}

type InviteMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin member viewer"`
}

type WorkspaceStateResponse struct {
	ActiveTenantKey string             `json:"activeTenantKey"`
	Personal        *entity.Workspace  `json:"personal"`
	Teams           []entity.Workspace `json:"teams"`
	IsLoading       bool               `json:"isLoading"`
	IsInitialized   bool               `json:"isInitialized"`
	IsSwitching     bool               `json:"isSwitching"`
	Error           string             `json:"error,omitempty"`
}
