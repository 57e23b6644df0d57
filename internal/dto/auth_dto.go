package dto

type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required,len=6"`
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2"`
	OrgName  string `json:"orgName" validate:"required,min=2"`
	Industry string `json:"industry" validate:"omitempty"`
}

type SessionResponse struct {
	UserId    string `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	ExpiresAt int64  `json:"expiresAt"`
}
