package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admin-dashboard-bff/internal/entity"
)

func newHydratorFixture(t *testing.T, provider *fakeProvider, api *fakeBackend, kv *memoryKV) (*Hydrator, *SessionStore, *TenantStore, *OrgSettingsStore, *DocumentsStore) {
	t.Helper()
	session := NewSessionStore(provider, kv, nil, noopLogger())
	org := NewOrgSettingsStore()
	docs := NewDocumentsStore(nil)
	tenant := NewTenantStore(api, kv, []Resettable{org, docs}, nil, nil, noopLogger())
	h := NewHydrator(session, tenant, org, docs, []string{"/", "/auth/login", "/auth/verify-otp"})
	return h, session, tenant, org, docs
}

func TestHydrationFromSnapshot(t *testing.T) {
	provider := &fakeProvider{}
	h, session, tenant, org, docs := newHydratorFixture(t, provider, &fakeBackend{}, newMemoryKV(nil))

	snapshot := &Snapshot{
		Session: &SessionSnapshot{Identity: testIdentity()},
		Tenant:  &TenantSnapshot{TenantKey: "acme-team", Workspaces: testWorkspaces()},
		OrgSettings: &OrgSettingsSnapshot{
			OrgSettings: &entity.OrgSettings{OrgId: "ws-2", Name: "Acme Team"},
		},
		Documents: &DocumentsSnapshot{
			Documents: []entity.Document{{Id: "doc-1", FileName: "a.pdf"}},
		},
	}

	h.Run(context.Background(), snapshot, "/dashboard", true)

	assert.True(t, session.IsInitialized())
	assert.Equal(t, 0, provider.reads(), "snapshot bypasses the provider")
	assert.Equal(t, "acme-team", tenant.ActiveTenantKey())
	assert.True(t, tenant.IsInitialized())
	assert.True(t, org.IsInitialized())
	assert.Len(t, docs.Documents(), 1)
}

func TestHydrationInitializesAuthOffPublicRoutes(t *testing.T) {
	provider := &fakeProvider{}
	h, session, _, _, _ := newHydratorFixture(t, provider, &fakeBackend{}, newMemoryKV(nil))

	h.Run(context.Background(), nil, "/dashboard", true)

	assert.Equal(t, 1, provider.reads())
	assert.True(t, session.IsInitialized())
}

func TestHydrationSkipsAuthOnPublicRoute(t *testing.T) {
	provider := &fakeProvider{}
	h, session, _, _, _ := newHydratorFixture(t, provider, &fakeBackend{}, newMemoryKV(nil))

	h.Run(context.Background(), nil, "/auth/login", true)
	h.Run(context.Background(), nil, "/auth/verify-otp/resend", true)

	assert.Equal(t, 0, provider.reads())
	assert.False(t, session.IsInitialized())
}

func TestHydrationSkipsAuthWhenDisabled(t *testing.T) {
	provider := &fakeProvider{}
	h, _, _, _, _ := newHydratorFixture(t, provider, &fakeBackend{}, newMemoryKV(nil))

	h.Run(context.Background(), nil, "/dashboard", false)

	assert.Equal(t, 0, provider.reads())
}

func TestHydrationSeedsPersistedTenantKeyWithoutInitializing(t *testing.T) {
	kv := newMemoryKV(nil)
	require.NoError(t, kv.Set("tenantId", "acme-team"))
	h, _, tenant, _, _ := newHydratorFixture(t, &fakeProvider{}, &fakeBackend{}, kv)

	h.Run(context.Background(), nil, "/dashboard", true)

	assert.Equal(t, "acme-team", tenant.ActiveTenantKey())
	// Initialization completes later, off the session-authenticated event.
	assert.False(t, tenant.IsInitialized())
	assert.False(t, tenant.State().IsLoading)
}

func TestHydrationIsIdempotentAcrossRenders(t *testing.T) {
	provider := &fakeProvider{}
	h, _, tenant, _, docs := newHydratorFixture(t, provider, &fakeBackend{}, newMemoryKV(nil))

	for i := 0; i < 5; i++ {
		h.Run(context.Background(), nil, "/dashboard", true)
	}
	assert.Equal(t, 1, provider.reads(), "guards fire once per mount")

	// A snapshot showing up on a later render must not double-hydrate either.
	docs.SetDocuments([]entity.Document{{Id: "doc-live"}})
	h.Run(context.Background(), &Snapshot{
		Documents: &DocumentsSnapshot{Documents: []entity.Document{{Id: "doc-stale"}}},
		Tenant:    &TenantSnapshot{TenantKey: "stale-key"},
	}, "/dashboard", true)

	assert.Equal(t, "doc-live", docs.Documents()[0].Id)
	assert.NotEqual(t, "stale-key", tenant.ActiveTenantKey())
}
