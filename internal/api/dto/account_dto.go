package dto

import (
	"time"

	"github.com/spec-kit/lead-crm/internal/domain"
)

// CreateAccountRequest payload.
type CreateAccountRequest struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Role        domain.Role `json:"role"`
	ReportingTo *string     `json:"reporting_to"`
}

// UpdateAccountRequest payload. ReportingTo distinguishes "absent"
// from "set to null" so admins can clear a manager explicitly.
type UpdateAccountRequest struct {
	Name           *string      `json:"name"`
	Email          *string      `json:"email"`
	Role           *domain.Role `json:"role"`
	IsActive       *bool        `json:"is_active"`
	ReportingTo    *string      `json:"reporting_to"`
	HasReportingTo bool         `json:"-"`
}

// AccountResponse is the wire shape of an account.
type AccountResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	RoleDisplay string      `json:"role_display"`
	ReportingTo *string     `json:"reporting_to"`
	IsActive    bool        `json:"is_active"`
	LeadCount   *int64      `json:"lead_count,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ReportingOptionResponse is a candidate manager for a role.
type ReportingOptionResponse struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

// NewAccountResponse maps a domain account.
func NewAccountResponse(account domain.Account) AccountResponse {
	return AccountResponse{
		ID:          account.ID,
		Name:        account.Name,
		Email:       account.Email,
		Role:        account.Role,
		RoleDisplay: account.Role.DisplayName(),
		ReportingTo: account.ReportingTo,
		IsActive:    account.IsActive,
		CreatedAt:   account.CreatedAt,
		UpdatedAt:   account.UpdatedAt,
	}
}
