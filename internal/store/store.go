// Package store holds the dashboard's state-coordination core: the session,
// tenant and resource stores plus the hydration and switch logic that keeps
// them consistent across sign-in, workspace switches and sign-out.
package store

import (
	"encoding/json"
	"time"

	"admin-dashboard-bff/pkg/events"
)

// Resettable is the uniform capability the switch path and the sign-out
// teardown invoke on dependent resource caches. The tenant store never learns
// the concrete cache types behind it.
type Resettable interface {
	Reset()
}

type eventEnvelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// marshalEvent serializes a store event for the watermill bus.
func marshalEvent(e events.Event) ([]byte, error) {
	return json.Marshal(eventEnvelope{
		Type:       e.EventType(),
		Data:       e.Payload(),
		OccurredAt: e.Timestamp(),
	})
}
