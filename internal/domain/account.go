package domain

import "time"

// Account models a person with system access.
//
// ReportingTo is a weak reference: it is resolved by lookup at read time
// and a missing or soft-deleted referent is treated as "no manager".
// Only an admin may have no manager.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	ReportingTo  *string
	IsActive     bool
	IsDeleted    bool
	CreatedBy    *string
	UpdatedBy    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
