package identity

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"admin-dashboard-bff/internal/entity"
)

// Session is the raw credential set issued by the identity provider.
type Session struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int                 `json:"expires_in"`
	ExpiresAt    int64               `json:"expires_at"`
	User         entity.UserIdentity `json:"user"`
}

// IsExpired reports whether the access token has passed its expiry claim.
// A session without an expiry is treated as live; the provider rejects it
// server-side if it is not.
func (s *Session) IsExpired() bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return time.Now().Unix() >= s.ExpiresAt
}

// SessionChange is the notification published on the auth.session topic.
type SessionChange struct {
	Event   string   `json:"event"`
	Session *Session `json:"session,omitempty"`
}

func (c SessionChange) Marshal() []byte {
	data, _ := json.Marshal(c)
	return data
}

// claimExpiry extracts the exp claim from the access token without verifying
// the signature. The gateway never holds the provider's signing secret; the
// claim is only used to decide when to refresh proactively.
func claimExpiry(accessToken string) int64 {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return 0
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.Unix()
}
