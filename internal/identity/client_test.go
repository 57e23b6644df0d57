package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admin-dashboard-bff/internal/persistence"
	"admin-dashboard-bff/internal/pkg/logger"
	"admin-dashboard-bff/pkg/events"
)

func newTestClient(t *testing.T, handler http.Handler) (IProvider, persistence.KV, *gochannel.GoChannel) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	kv := persistence.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	client := NewProviderClient(server.URL, "anon-key", kv, pubSub, logger.Noop())
	return client, kv, pubSub
}

func TestVerifyOneTimeCodePersistsAndNotifies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/verify", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "email", payload["type"])
		assert.Equal(t, "admin@acme.test", payload["email"])
		assert.Equal(t, "123456", payload["token"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "token-1",
			"refresh_token": "refresh-1",
			"expires_at":    time.Now().Add(time.Hour).Unix(),
			"user":          map[string]interface{}{"id": "user-1", "email": "admin@acme.test"},
		})
	})

	client, kv, pubSub := newTestClient(t, mux)

	messages, err := pubSub.Subscribe(context.Background(), events.TopicAuthSession)
	require.NoError(t, err)

	session, err := client.VerifyOneTimeCode(context.Background(), "admin@acme.test", "123456")
	require.NoError(t, err)
	assert.Equal(t, "token-1", session.AccessToken)
	assert.Equal(t, "user-1", session.User.Id)

	raw, ok, _ := kv.Get(persistence.SlotSession)
	assert.True(t, ok, "session persisted")
	assert.Contains(t, raw, "token-1")

	select {
	case msg := <-messages:
		var change SessionChange
		require.NoError(t, json.Unmarshal(msg.Payload, &change))
		assert.Equal(t, events.SessionSignedIn, change.Event)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no session change published")
	}
}

func TestVerifyOneTimeCodeSurfacesProviderMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/verify", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"msg": "Token has expired or is invalid"})
	})

	client, _, _ := newTestClient(t, mux)

	_, err := client.VerifyOneTimeCode(context.Background(), "admin@acme.test", "000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Token has expired")
}

func TestGetCurrentSessionAbsentIsNil(t *testing.T) {
	client, _, _ := newTestClient(t, http.NewServeMux())

	session, err := client.GetCurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestGetCurrentSessionRefreshesExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "token-2",
			"refresh_token": "refresh-2",
			"expires_at":    time.Now().Add(time.Hour).Unix(),
			"user":          map[string]interface{}{"id": "user-1"},
		})
	})

	client, kv, _ := newTestClient(t, mux)

	stale := Session{
		AccessToken:  "token-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute).Unix(),
	}
	raw, _ := json.Marshal(stale)
	require.NoError(t, kv.Set(persistence.SlotSession, string(raw)))

	session, err := client.GetCurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "token-2", session.AccessToken)
}

func TestGetCurrentSessionFailedRefreshIsAbsence(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"msg": "Invalid refresh token"})
	})

	client, kv, _ := newTestClient(t, mux)

	stale := Session{AccessToken: "token-1", RefreshToken: "gone", ExpiresAt: 1}
	raw, _ := json.Marshal(stale)
	require.NoError(t, kv.Set(persistence.SlotSession, string(raw)))

	session, err := client.GetCurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session, "unrefreshable session reads as absent")

	_, ok, _ := kv.Get(persistence.SlotSession)
	assert.False(t, ok, "dead session slot cleared")
}

func TestSignOutClearsSlotAndNotifies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	client, kv, pubSub := newTestClient(t, mux)

	live := Session{AccessToken: "token-1", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	raw, _ := json.Marshal(live)
	require.NoError(t, kv.Set(persistence.SlotSession, string(raw)))

	messages, err := pubSub.Subscribe(context.Background(), events.TopicAuthSession)
	require.NoError(t, err)

	require.NoError(t, client.SignOut(context.Background()))

	_, ok, _ := kv.Get(persistence.SlotSession)
	assert.False(t, ok)

	select {
	case msg := <-messages:
		var change SessionChange
		require.NoError(t, json.Unmarshal(msg.Payload, &change))
		assert.Equal(t, events.SessionSignedOut, change.Event)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no sign-out notification published")
	}
}
