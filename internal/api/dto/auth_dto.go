package dto

import (
	"time"

	"github.com/spec-kit/lead-crm/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse standard response for auth endpoints.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   AccountResponse `json:"account"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SessionResponse describes the authenticated account.
type SessionResponse struct {
	Account        AccountResponse `json:"account"`
	CreatableRoles []domain.Role   `json:"creatable_roles"`
}
