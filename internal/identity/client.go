package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"admin-dashboard-bff/internal/persistence"
	"admin-dashboard-bff/internal/pkg/logger"
	"admin-dashboard-bff/pkg/events"
)

// IProvider is the identity-provider boundary the stores consume. OTP delivery
// and validation live entirely on the provider side.
type IProvider interface {
	GetCurrentSession(ctx context.Context) (*Session, error)
	RequestOneTimeCode(ctx context.Context, email string) error
	VerifyOneTimeCode(ctx context.Context, email, code string) (*Session, error)
	SignOut(ctx context.Context) error
}

type providerClient struct {
	baseURL   string
	anonKey   string
	http      *http.Client
	kv        persistence.KV
	publisher message.Publisher
	logger    logger.ILogger
}

func NewProviderClient(baseURL, anonKey string, kv persistence.KV, publisher message.Publisher, log logger.ILogger) IProvider {
	return &providerClient{
		baseURL:   baseURL,
		anonKey:   anonKey,
		http:      &http.Client{Timeout: 15 * time.Second},
		kv:        kv,
		publisher: publisher,
		logger:    log,
	}
}

// GetCurrentSession loads the persisted session, refreshing it through the
// provider when the access token is expired. A missing session returns
// (nil, nil): absence is a valid state, not an error.
func (c *providerClient) GetCurrentSession(ctx context.Context) (*Session, error) {
	raw, ok, err := c.kv.Get(persistence.SlotSession)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// A corrupt slot is the same as no session.
		c.logger.Warn("Identity", "Discarding unreadable persisted session", map[string]interface{}{"error": err.Error()})
		_ = c.kv.Delete(persistence.SlotSession)
		return nil, nil
	}

	if !session.IsExpired() {
		return &session, nil
	}

	refreshed, err := c.refresh(ctx, session.RefreshToken)
	if err != nil {
		c.logger.Warn("Identity", "Session refresh failed", map[string]interface{}{"error": err.Error()})
		_ = c.kv.Delete(persistence.SlotSession)
		return nil, nil
	}

	if err := c.persist(refreshed); err != nil {
		return nil, err
	}
	c.notify(events.SessionTokenRefreshed, refreshed)
	return refreshed, nil
}

func (c *providerClient) RequestOneTimeCode(ctx context.Context, email string) error {
	payload := map[string]interface{}{
		"email":       email,
		"create_user": false,
	}
	_, err := c.post(ctx, "/auth/v1/otp", payload, "")
	return err
}

// VerifyOneTimeCode exchanges an emailed code for a session, persists it and
// publishes the SIGNED_IN notification.
func (c *providerClient) VerifyOneTimeCode(ctx context.Context, email, code string) (*Session, error) {
	payload := map[string]interface{}{
		"type":  "email",
		"email": email,
		"token": code,
	}
	body, err := c.post(ctx, "/auth/v1/verify", payload, "")
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	if session.ExpiresAt == 0 {
		session.ExpiresAt = claimExpiry(session.AccessToken)
	}

	if err := c.persist(&session); err != nil {
		return nil, err
	}
	c.notify(events.SessionSignedIn, &session)
	return &session, nil
}

func (c *providerClient) SignOut(ctx context.Context) error {
	raw, ok, _ := c.kv.Get(persistence.SlotSession)
	if ok && raw != "" {
		var session Session
		if err := json.Unmarshal([]byte(raw), &session); err == nil {
			// Best effort revocation. The local session dies regardless.
			if _, err := c.post(ctx, "/auth/v1/logout", map[string]interface{}{}, session.AccessToken); err != nil {
				c.logger.Warn("Identity", "Provider logout failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	if err := c.kv.Delete(persistence.SlotSession); err != nil {
		return err
	}
	c.notify(events.SessionSignedOut, nil)
	return nil
}

func (c *providerClient) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	payload := map[string]interface{}{"refresh_token": refreshToken}
	body, err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", payload, "")
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}
	if session.ExpiresAt == 0 {
		session.ExpiresAt = claimExpiry(session.AccessToken)
	}
	return &session, nil
}

func (c *providerClient) persist(session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.kv.Set(persistence.SlotSession, string(raw))
}

func (c *providerClient) notify(event string, session *Session) {
	if c.publisher == nil {
		return
	}
	change := SessionChange{Event: event, Session: session}
	msg := message.NewMessage(watermill.NewUUID(), change.Marshal())
	if err := c.publisher.Publish(events.TopicAuthSession, msg); err != nil {
		c.logger.Error("Identity", "Failed to publish session change", map[string]interface{}{"event": event, "error": err.Error()})
	}
}

type providerError struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func (c *providerClient) post(ctx context.Context, path string, payload map[string]interface{}, bearer string) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var pe providerError
		if json.Unmarshal(body, &pe) == nil {
			switch {
			case pe.Message != "":
				return nil, fmt.Errorf("%s", pe.Message)
			case pe.Msg != "":
				return nil, fmt.Errorf("%s", pe.Msg)
			case pe.ErrorDescription != "":
				return nil, fmt.Errorf("%s", pe.ErrorDescription)
			}
		}
		return nil, fmt.Errorf("identity provider error: %s", resp.Status)
	}
	return body, nil
}
