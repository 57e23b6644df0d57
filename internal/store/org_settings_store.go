package store

import (
	"sync"

	"admin-dashboard-bff/internal/entity"
)

// OrgSettingsState is a read snapshot of the org-settings cache.
type OrgSettingsState struct {
	OrgSettings   *entity.OrgSettings `json:"orgSettings"`
	IsLoading     bool                `json:"isLoading"`
	IsInitialized bool                `json:"isInitialized"`
	Error         string              `json:"error,omitempty"`
}

// OrgSettingsStore caches the settings of the active tenant.
type OrgSettingsStore struct {
	mu            sync.Mutex
	orgSettings   *entity.OrgSettings
	isLoading     bool
	isInitialized bool
	err           error
}

func NewOrgSettingsStore() *OrgSettingsStore {
	return &OrgSettingsStore{}
}

func (o *OrgSettingsStore) SetOrgSettings(settings *entity.OrgSettings) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orgSettings = settings
	o.isInitialized = true
	o.err = nil
}

func (o *OrgSettingsStore) SetLoading(loading bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.isLoading = loading
}

func (o *OrgSettingsStore) SetError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
	o.isLoading = false
}

func (o *OrgSettingsStore) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orgSettings = nil
	o.isLoading = false
	o.isInitialized = false
	o.err = nil
}

func (o *OrgSettingsStore) Hydrate(settings *entity.OrgSettings) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orgSettings = settings
	o.isLoading = false
	o.isInitialized = true
}

func (o *OrgSettingsStore) OrgSettings() *entity.OrgSettings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.orgSettings
}

func (o *OrgSettingsStore) IsInitialized() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.isInitialized
}

func (o *OrgSettingsStore) State() OrgSettingsState {
	o.mu.Lock()
	defer o.mu.Unlock()
	state := OrgSettingsState{
		OrgSettings:   o.orgSettings,
		IsLoading:     o.isLoading,
		IsInitialized: o.isInitialized,
	}
	if o.err != nil {
		state.Error = o.err.Error()
	}
	return state
}
