package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"admin-dashboard-bff/internal/backend"
	"admin-dashboard-bff/internal/entity"
	"admin-dashboard-bff/internal/persistence"
	"admin-dashboard-bff/internal/pkg/logger"
	"admin-dashboard-bff/internal/querycache"
	"admin-dashboard-bff/pkg/events"
)

// ErrSwitchInProgress rejects a workspace switch started while another is
// still running. Callers retry once the first settles.
var ErrSwitchInProgress = errors.New("workspace switch already in progress")

// TenantState is a read snapshot of the tenant store for rendering.
type TenantState struct {
	ActiveTenantKey string                `json:"activeTenantKey,omitempty"`
	Workspaces      *entity.WorkspaceList `json:"workspaces"`
	IsLoading       bool                  `json:"isLoading"`
	IsInitialized   bool                  `json:"isInitialized"`
	IsSwitching     bool                  `json:"isSwitching"`
	Error           string                `json:"error,omitempty"`
}

// TenantStore owns workspace resolution and switching. The active tenant key
// is the sole piece of tenant state persisted across restarts; everything else
// is refetched. Dependent resource caches are injected as a uniform Resettable
// list so the switch path stays decoupled from concrete cache types.
type TenantStore struct {
	mu              sync.Mutex
	activeTenantKey string
	workspaces      *entity.WorkspaceList
	isLoading       bool
	isFetching      bool
	isInitialized   bool
	isSwitching     bool
	err             error
	fetchGen        uint64

	backend     backend.IClient
	kv          persistence.KV
	caches      []Resettable
	invalidator querycache.Invalidator
	publisher   message.Publisher
	logger      logger.ILogger
}

func NewTenantStore(api backend.IClient, kv persistence.KV, caches []Resettable, invalidator querycache.Invalidator, publisher message.Publisher, log logger.ILogger) *TenantStore {
	return &TenantStore{
		backend:     api,
		kv:          kv,
		caches:      caches,
		invalidator: invalidator,
		publisher:   publisher,
		isLoading:   true,
		logger:      log,
	}
}

// SetActiveTenant sets the active key and persists (or clears) the durable
// slot. Pure and synchronous; validation against the workspace snapshot is
// the switch path's job, not this setter's.
func (t *TenantStore) SetActiveTenant(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setActiveTenantLocked(key)
}

func (t *TenantStore) setActiveTenantLocked(key string) {
	t.activeTenantKey = key
	if key != "" {
		if err := t.kv.Set(persistence.SlotTenantKey, key); err != nil {
			t.logger.Warn("Tenant", "Failed to persist tenant key", map[string]interface{}{"error": err.Error()})
		}
	} else {
		if err := t.kv.Delete(persistence.SlotTenantKey); err != nil {
			t.logger.Warn("Tenant", "Failed to clear tenant key", map[string]interface{}{"error": err.Error()})
		}
	}
}

// LoadPersistedKey reconciles the durable slot into memory. Called once during
// hydration, before the session is known; the store deliberately stays
// uninitialized so the post-auth fetch still runs.
func (t *TenantStore) LoadPersistedKey() {
	key, ok, err := t.kv.Get(persistence.SlotTenantKey)
	if err != nil {
		t.logger.Warn("Tenant", "Failed to read persisted tenant key", map[string]interface{}{"error": err.Error()})
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if ok && key != "" {
		t.activeTenantKey = key
	}
	t.isLoading = false
}

// FetchWorkspaces loads the workspace list for the current session. Guarded
// against concurrent invocation: a second call while one is in flight is
// dropped. The guard is a dedicated in-flight flag, not the render-facing
// isLoading, so a fetch fired before LoadPersistedKey or Hydrate still runs.
// An absent session token completes the store as initialized with no error —
// not being logged in yet is not a failure. On fetch failure the previous
// snapshot is kept (stale data beats empty data) and the error is recorded in
// state rather than returned.
func (t *TenantStore) FetchWorkspaces(ctx context.Context) {
	t.mu.Lock()
	if t.isFetching {
		t.mu.Unlock()
		return
	}
	t.isFetching = true
	t.isLoading = true
	t.err = nil
	t.fetchGen++
	gen := t.fetchGen
	t.mu.Unlock()

	list, err := t.backend.MyWorkspaces(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.fetchGen {
		// A newer fetch or a clear superseded this response; drop it.
		return
	}

	if errors.Is(err, backend.ErrNoToken) {
		t.isFetching = false
		t.isLoading = false
		t.isInitialized = true
		t.err = nil
		return
	}
	if err != nil {
		t.logger.Error("Tenant", "Failed to fetch workspaces", map[string]interface{}{"error": err.Error()})
		t.err = err
		t.isFetching = false
		t.isLoading = false
		t.isInitialized = true
		return
	}

	t.workspaces = list
	t.isFetching = false
	t.isLoading = false
	t.isInitialized = true
	t.err = nil

	// Default-to-personal when no tenant was carried over.
	if t.activeTenantKey == "" && list.Personal != nil && list.Personal.Slug != "" {
		t.setActiveTenantLocked(list.Personal.Slug)
	}

	t.publish(events.TenantFetched, map[string]interface{}{"activeTenantKey": t.activeTenantKey})
}

// SwitchWorkspace runs the switch protocol: same-target no-op, eager reset of
// dependent caches, slug resolution against the current snapshot, then commit
// or rollback. Caches are reset before validation on purpose — a failed
// switch must leave empty caches rather than data scoped to a tenant the UI
// no longer considers active. This is the one store failure surfaced to the
// caller instead of swallowed into state.
func (t *TenantStore) SwitchWorkspace(targetKey string) error {
	t.mu.Lock()
	if targetKey == t.activeTenantKey {
		t.mu.Unlock()
		return nil
	}
	if t.isSwitching {
		t.mu.Unlock()
		return ErrSwitchInProgress
	}
	priorKey := t.activeTenantKey
	t.isSwitching = true
	t.err = nil
	caches := t.caches
	t.mu.Unlock()

	for _, cache := range caches {
		cache.Reset()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	target := t.workspaces.FindBySlug(targetKey)
	if target == nil {
		switchErr := fmt.Errorf("workspace with ID %q not found", targetKey)

		// Rollback: the in-memory key never moved, but the durable slot is
		// rewritten so it cannot disagree with memory.
		t.activeTenantKey = priorKey
		if priorKey != "" {
			if err := t.kv.Set(persistence.SlotTenantKey, priorKey); err != nil {
				t.logger.Warn("Tenant", "Failed to restore tenant key", map[string]interface{}{"error": err.Error()})
			}
		} else {
			if err := t.kv.Delete(persistence.SlotTenantKey); err != nil {
				t.logger.Warn("Tenant", "Failed to clear tenant key", map[string]interface{}{"error": err.Error()})
			}
		}
		t.err = switchErr
		t.isSwitching = false
		t.logger.Error("Tenant", "Workspace switch rolled back", map[string]interface{}{"target": targetKey, "error": switchErr.Error()})
		return switchErr
	}

	t.setActiveTenantLocked(targetKey)
	t.isSwitching = false
	t.err = nil

	if t.invalidator != nil {
		t.invalidator.InvalidateTags(querycache.TenantScopedTags...)
	}
	t.publish(events.TenantSwitched, map[string]interface{}{"activeTenantKey": targetKey, "previous": priorKey})
	return nil
}

// Clear resets the store and the durable slot. Used on sign-out. Bumps the
// fetch generation so an in-flight workspace response cannot resurrect state.
func (t *TenantStore) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetchGen++
	t.activeTenantKey = ""
	t.workspaces = nil
	t.err = nil
	t.isFetching = false
	t.isLoading = false
	if err := t.kv.Delete(persistence.SlotTenantKey); err != nil {
		t.logger.Warn("Tenant", "Failed to clear tenant key", map[string]interface{}{"error": err.Error()})
	}
	t.publish(events.TenantCleared, nil)
}

// Hydrate seeds the store from a server-provided snapshot.
func (t *TenantStore) Hydrate(tenantKey string, workspaces *entity.WorkspaceList) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activeTenantKey = tenantKey
	t.workspaces = workspaces
	t.isLoading = false
	t.isInitialized = true
}

func (t *TenantStore) ActiveTenantKey() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeTenantKey
}

func (t *TenantStore) Workspaces() *entity.WorkspaceList {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.workspaces
}

func (t *TenantStore) IsInitialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isInitialized
}

func (t *TenantStore) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *TenantStore) State() TenantState {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := TenantState{
		ActiveTenantKey: t.activeTenantKey,
		Workspaces:      t.workspaces,
		IsLoading:       t.isLoading,
		IsInitialized:   t.isInitialized,
		IsSwitching:     t.isSwitching,
	}
	if t.err != nil {
		state.Error = t.err.Error()
	}
	return state
}

func (t *TenantStore) publish(eventType string, data map[string]interface{}) {
	if t.publisher == nil {
		return
	}
	event := events.New(eventType, data)
	payload, err := marshalEvent(event)
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := t.publisher.Publish(events.TopicTenant, msg); err != nil {
		t.logger.Warn("Tenant", "Failed to publish tenant event", map[string]interface{}{"event": eventType, "error": err.Error()})
	}
}
