package store

import (
	"context"
	"strings"
	"sync"

	"admin-dashboard-bff/internal/entity"
)

// Snapshot carries optional server-prepared slices for seeding stores without
// network fetches.
type Snapshot struct {
	Session     *SessionSnapshot     `json:"session,omitempty"`
	Tenant      *TenantSnapshot      `json:"tenant,omitempty"`
	OrgSettings *OrgSettingsSnapshot `json:"orgSettings,omitempty"`
	Documents   *DocumentsSnapshot   `json:"documents,omitempty"`
}

type SessionSnapshot struct {
	Identity *entity.UserIdentity `json:"identity"`
	Profile  *entity.UserProfile  `json:"profile"`
}

type TenantSnapshot struct {
	TenantKey  string                `json:"tenantKey"`
	Workspaces *entity.WorkspaceList `json:"workspaces"`
}

type OrgSettingsSnapshot struct {
	OrgSettings *entity.OrgSettings `json:"orgSettings"`
}

type DocumentsSnapshot struct {
	Documents []entity.Document `json:"documents"`
}

// Hydrator seeds the stores once per mount. Each side effect fires behind its
// own guard, independent of store state, so repeated invocation (every render)
// stays a no-op after the first pass. Auth initialization is skipped on public
// routes; the tenant store only gets its persisted key here — the workspace
// fetch itself is triggered by the session-became-authenticated event, not by
// the coordinator.
type Hydrator struct {
	session     *SessionStore
	tenant      *TenantStore
	orgSettings *OrgSettingsStore
	documents   *DocumentsStore

	publicRoutePrefixes []string

	mu     sync.Mutex
	guards struct {
		session     bool
		tenant      bool
		orgSettings bool
		documents   bool
		auth        bool
	}
}

func NewHydrator(session *SessionStore, tenant *TenantStore, orgSettings *OrgSettingsStore, documents *DocumentsStore, publicRoutePrefixes []string) *Hydrator {
	return &Hydrator{
		session:             session,
		tenant:              tenant,
		orgSettings:         orgSettings,
		documents:           documents,
		publicRoutePrefixes: publicRoutePrefixes,
	}
}

// Run applies the snapshot (if any) and kicks off client-side initialization
// where no snapshot slice was provided. Safe to call repeatedly.
func (h *Hydrator) Run(ctx context.Context, snapshot *Snapshot, route string, shouldInitializeAuth bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if snapshot == nil {
		snapshot = &Snapshot{}
	}

	if snapshot.Session != nil && !h.session.IsInitialized() && !h.guards.session {
		h.session.Hydrate(snapshot.Session.Identity, snapshot.Session.Profile)
		h.guards.session = true
	}

	if snapshot.Tenant != nil && !h.tenant.IsInitialized() && !h.guards.tenant {
		h.tenant.Hydrate(snapshot.Tenant.TenantKey, snapshot.Tenant.Workspaces)
		h.guards.tenant = true
	}

	if snapshot.OrgSettings != nil && !h.orgSettings.IsInitialized() && !h.guards.orgSettings {
		h.orgSettings.Hydrate(snapshot.OrgSettings.OrgSettings)
		h.guards.orgSettings = true
	}

	if snapshot.Documents != nil && !h.documents.IsInitialized() && !h.guards.documents {
		h.documents.Hydrate(snapshot.Documents.Documents)
		h.guards.documents = true
	}

	if snapshot.Session == nil && !h.session.IsInitialized() && shouldInitializeAuth &&
		!h.isPublicRoute(route) && !h.guards.auth {
		h.session.Initialize(ctx)
		h.guards.auth = true
	}

	if snapshot.Tenant == nil && !h.tenant.IsInitialized() && !h.guards.tenant {
		// Seed the persisted key only; initialization completes after auth.
		h.tenant.LoadPersistedKey()
		h.guards.tenant = true
	}
}

// isPublicRoute matches exact entries and, for non-root entries, whole path
// groups under the prefix.
func (h *Hydrator) isPublicRoute(route string) bool {
	for _, prefix := range h.publicRoutePrefixes {
		if route == prefix {
			return true
		}
		if prefix != "/" && strings.HasPrefix(route, strings.TrimRight(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
