package domain

import "time"

// LeadStatus enumerates pipeline stages for a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusFollowUp  LeadStatus = "follow-up"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// AllLeadStatuses lists pipeline stages in order.
var AllLeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusFollowUp,
	LeadStatusConverted,
	LeadStatusLost,
}

// Valid reports whether the status is a known pipeline stage.
func (s LeadStatus) Valid() bool {
	for _, candidate := range AllLeadStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// LeadSource records how a lead entered the system.
type LeadSource string

const (
	LeadSourceManual        LeadSource = "manual"
	LeadSourceAdminAssigned LeadSource = "admin-assigned"
)

// Lead is the aggregate for sales prospects. AssignedUser is the sole
// owner for authorization scoping; CreatedBy plays no part in it.
type Lead struct {
	ID           string
	Name         string
	Email        *string
	Phone        string
	Address      string
	Source       LeadSource
	Status       LeadStatus
	AssignedUser string
	CreatedBy    string
	UpdatedBy    *string
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
