package entity

import "time"

// UserIdentity mirrors the identity record returned by the auth provider.
// Email and Phone are optional: OTP sign-in only guarantees one of them.
type UserIdentity struct {
	Id        string                 `json:"id"`
	Email     string                 `json:"email,omitempty"`
	Phone     string                 `json:"phone,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Metadata  map[string]interface{} `json:"user_metadata,omitempty"`
}

// UserProfile is the display profile derived from a UserIdentity.
type UserProfile struct {
	Id        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ProfileFromIdentity derives the display profile from raw identity metadata.
// Name falls back from "name" to "full_name"; a blank avatar URL is dropped.
func ProfileFromIdentity(u *UserIdentity) *UserProfile {
	p := &UserProfile{
		Id:        u.Id,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}

	if name, ok := u.Metadata["name"].(string); ok && name != "" {
		p.Name = name
	} else if full, ok := u.Metadata["full_name"].(string); ok {
		p.Name = full
	}

	if avatar, ok := u.Metadata["avatar_url"].(string); ok && avatar != "" {
		p.AvatarURL = avatar
	}

	return p
}
