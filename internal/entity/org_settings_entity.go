package entity

import "time"

// OrgSettings carries the per-workspace configuration shown on the settings
// page. Scoped to exactly one tenant; reset whenever the active tenant changes.
type OrgSettings struct {
	OrgId        string    `json:"orgId"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	Industry     string    `json:"industry,omitempty"`
	MaxDocuments int       `json:"maxDocuments,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OrgMember is a row of the workspace member list.
type OrgMember struct {
	Id       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	JoinedAt string `json:"joinedAt,omitempty"`
}
