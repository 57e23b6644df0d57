package entity

import "time"

// Workspace is an isolated organizational context (tenant). The Slug is the
// human-readable key the rest of the system scopes data by.
type Workspace struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"isActive"`
	IsPersonal  bool      `json:"isPersonal"`
	OwnerId     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WorkspaceList is the snapshot returned by GET /orgs/my-workspaces.
// At most one workspace per session is personal; it is the default fallback.
type WorkspaceList struct {
	Personal *Workspace  `json:"personal"`
	Teams    []Workspace `json:"teams"`
}

// FindBySlug resolves a slug against the snapshot, checking the personal
// workspace first and then the teams in order.
func (l *WorkspaceList) FindBySlug(slug string) *Workspace {
	if l == nil {
		return nil
	}
	if l.Personal != nil && l.Personal.Slug == slug {
		return l.Personal
	}
	for i := range l.Teams {
		if l.Teams[i].Slug == slug {
			return &l.Teams[i]
		}
	}
	return nil
}
