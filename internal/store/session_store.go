package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"admin-dashboard-bff/internal/entity"
	"admin-dashboard-bff/internal/identity"
	"admin-dashboard-bff/internal/persistence"
	"admin-dashboard-bff/internal/pkg/logger"
	"admin-dashboard-bff/pkg/events"
)

// SessionState is a read snapshot of the session store for rendering.
type SessionState struct {
	Identity      *entity.UserIdentity `json:"identity"`
	Profile       *entity.UserProfile  `json:"profile"`
	IsLoading     bool                 `json:"isLoading"`
	IsInitialized bool                 `json:"isInitialized"`
}

// SessionStore owns the auth lifecycle: provider initialization, sign-in and
// sign-out events, token refresh, and the derived display profile. Downstream
// teardown happens through an explicit hook set by the composition root, never
// by reaching into other stores.
type SessionStore struct {
	mu            sync.Mutex
	identityState *entity.UserIdentity
	profile       *entity.UserProfile
	isLoading     bool
	isInitialized bool
	initializing  bool

	provider   identity.IProvider
	kv         persistence.KV
	subscriber message.Subscriber
	onSignOut  func()
	logger     logger.ILogger

	watchCancel context.CancelFunc
}

func NewSessionStore(provider identity.IProvider, kv persistence.KV, subscriber message.Subscriber, log logger.ILogger) *SessionStore {
	return &SessionStore{
		provider:   provider,
		kv:         kv,
		subscriber: subscriber,
		isLoading:  true,
		logger:     log,
	}
}

// SetSignOutHook installs the downstream teardown run on sign-out (resource
// caches first, then the tenant store). Wired once by the composition root.
func (s *SessionStore) SetSignOutHook(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSignOut = hook
}

// Initialize reads the persisted session from the provider and subscribes to
// its change feed. Idempotent: the provider is read at most once per process,
// and a second call is a no-op regardless of timing. Provider failures are
// logged and treated as "no session" — the UI must never hang waiting for
// auth, and session absence is a valid state.
func (s *SessionStore) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.isInitialized || s.initializing {
		s.mu.Unlock()
		return
	}
	s.initializing = true
	s.isLoading = true
	s.mu.Unlock()

	session, err := s.provider.GetCurrentSession(ctx)

	s.mu.Lock()
	switch {
	case err != nil:
		s.logger.Error("Session", "Failed to read persisted session", map[string]interface{}{"error": err.Error()})
		s.identityState = nil
		s.profile = nil
	case session != nil:
		s.applySessionLocked(session)
	default:
		s.identityState = nil
		s.profile = nil
	}
	// Initialized becomes true exactly once, even on failure.
	s.isInitialized = true
	s.isLoading = false
	s.initializing = false
	s.mu.Unlock()

	s.watchSessionChanges()
}

// watchSessionChanges consumes the provider's change feed for the remainder
// of process life.
func (s *SessionStore) watchSessionChanges() {
	if s.subscriber == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.watchCancel != nil {
		s.mu.Unlock()
		cancel()
		return
	}
	s.watchCancel = cancel
	s.mu.Unlock()

	messages, err := s.subscriber.Subscribe(ctx, events.TopicAuthSession)
	if err != nil {
		s.logger.Error("Session", "Failed to subscribe to session changes", map[string]interface{}{"error": err.Error()})
		return
	}

	go func() {
		for msg := range messages {
			var change identity.SessionChange
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				s.logger.Warn("Session", "Dropping unreadable session change", map[string]interface{}{"error": err.Error()})
				msg.Ack()
				continue
			}

			switch change.Event {
			case events.SessionSignedIn:
				if change.Session != nil {
					s.OnSignedIn(&change.Session.User)
				}
			case events.SessionSignedOut:
				s.OnSignedOut()
			case events.SessionTokenRefreshed:
				if change.Session != nil {
					s.OnTokenRefreshed(&change.Session.User)
				}
			}
			msg.Ack()
		}
	}()
}

// OnSignedIn replaces the identity and derives the display profile.
func (s *SessionStore) OnSignedIn(raw *entity.UserIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setIdentityLocked(raw)
	s.isLoading = false
}

// OnSignedOut clears the session. Teardown runs downstream-first so dependent
// state never outlives the caches scoped to it: resource caches, then tenant,
// then the identity itself.
func (s *SessionStore) OnSignedOut() {
	s.mu.Lock()
	hook := s.onSignOut
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identityState = nil
	s.profile = nil
	s.isLoading = false
	if err := s.kv.Delete(persistence.SlotUserProfile); err != nil {
		s.logger.Warn("Session", "Failed to clear persisted profile", map[string]interface{}{"error": err.Error()})
	}
}

// OnTokenRefreshed updates identity fields only; the cached profile keeps
// everything not bound to the token.
func (s *SessionStore) OnTokenRefreshed(raw *entity.UserIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identityState = raw
}

// SetIdentity pushes an identity directly, ahead of the provider's async
// notification. The OTP verification flow uses this so the UI sees the
// signed-in user immediately after a manual verify call.
func (s *SessionStore) SetIdentity(raw *entity.UserIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setIdentityLocked(raw)
}

// UpdateProfile replaces the display profile and persists it.
func (s *SessionStore) UpdateProfile(profile *entity.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setProfileLocked(profile)
}

// Hydrate seeds the store from a server-provided snapshot, bypassing the
// provider read.
func (s *SessionStore) Hydrate(identityState *entity.UserIdentity, profile *entity.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identityState = identityState
	s.profile = profile
	s.isLoading = false
	s.isInitialized = true
}

func (s *SessionStore) Identity() *entity.UserIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identityState
}

func (s *SessionStore) Profile() *entity.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *SessionStore) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isInitialized
}

func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identityState != nil
}

func (s *SessionStore) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Identity:      s.identityState,
		Profile:       s.profile,
		IsLoading:     s.isLoading,
		IsInitialized: s.isInitialized,
	}
}

// Close stops the session-change watcher.
func (s *SessionStore) Close() {
	s.mu.Lock()
	cancel := s.watchCancel
	s.watchCancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *SessionStore) setIdentityLocked(raw *entity.UserIdentity) {
	s.identityState = raw
	if raw != nil {
		s.setProfileLocked(entity.ProfileFromIdentity(raw))
	}
}

func (s *SessionStore) setProfileLocked(profile *entity.UserProfile) {
	s.profile = profile
	if profile == nil {
		if err := s.kv.Delete(persistence.SlotUserProfile); err != nil {
			s.logger.Warn("Session", "Failed to clear persisted profile", map[string]interface{}{"error": err.Error()})
		}
		return
	}
	raw, err := json.Marshal(profile)
	if err == nil {
		err = s.kv.Set(persistence.SlotUserProfile, string(raw))
	}
	if err != nil {
		s.logger.Warn("Session", "Failed to persist profile", map[string]interface{}{"error": err.Error()})
	}
}

func (s *SessionStore) applySessionLocked(session *identity.Session) {
	user := session.User
	s.setIdentityLocked(&user)
}
