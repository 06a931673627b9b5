package dto

import "time"

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ConfirmRequest answers the e-mailed confirmation code.
type ConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendRequest asks for a fresh confirmation code.
type ResendRequest struct {
	Email string `json:"email"`
}

// NewPasswordRequest answers a NEW_PASSWORD_REQUIRED challenge.
type NewPasswordRequest struct {
	Email       string `json:"email"`
	Session     string `json:"session"`
	NewPassword string `json:"new_password"`
}

// AuthResponse is returned by login and new-password: either a token or a
// challenge with its session.
type AuthResponse struct {
	IDToken   string     `json:"id_token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Challenge string     `json:"challenge,omitempty"`
	Session   string     `json:"session,omitempty"`
}

// MeResponse describes the signed-in account.
type MeResponse struct {
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Groups []string `json:"groups"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
