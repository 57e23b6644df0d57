package events

import "time"

// Watermill topics the gateway publishes on.
const (
	TopicAuthSession = "auth.session"
	TopicTenant      = "tenant.state"
	TopicDocuments   = "documents.state"
)

// Session change kinds, mirroring the identity provider's notification events.
const (
	SessionSignedIn       = "SIGNED_IN"
	SessionSignedOut      = "SIGNED_OUT"
	SessionTokenRefreshed = "TOKEN_REFRESHED"
)

// Tenant and document event kinds.
const (
	TenantFetched   = "TENANT_FETCHED"
	TenantSwitched  = "TENANT_SWITCHED"
	TenantCleared   = "TENANT_CLEARED"
	DocumentChanged = "DOCUMENT_CHANGED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SIGNED_IN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// New builds a BaseEvent stamped with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}
