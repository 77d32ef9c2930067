package events

import (
	"time"

	"github.com/spec-kit/lead-crm/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadCreated       EventType = "lead_created"
	EventLeadStatusChanged EventType = "lead_status_changed"
	EventLeadReassigned    EventType = "lead_reassigned"
	EventLeadCommentAdded  EventType = "lead_comment_added"
	EventFollowUpScheduled EventType = "lead_followup_scheduled"
	EventFollowUpDue       EventType = "lead_followup_due"
	EventLeadDeleted       EventType = "lead_deleted"
	EventAccountCreated    EventType = "account_created"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	LeadID    string      `json:"lead_id,omitempty"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LeadCreatedPayload payload.
type LeadCreatedPayload struct {
	Name         string            `json:"name"`
	Source       domain.LeadSource `json:"source"`
	Status       domain.LeadStatus `json:"status"`
	AssignedUser string            `json:"assigned_user"`
}

// LeadStatusChangedPayload payload.
type LeadStatusChangedPayload struct {
	OldStatus domain.LeadStatus `json:"old_status"`
	NewStatus domain.LeadStatus `json:"new_status"`
}

// LeadReassignedPayload payload.
type LeadReassignedPayload struct {
	OldAssignedUser string `json:"old_assigned_user"`
	NewAssignedUser string `json:"new_assigned_user"`
}

// LeadCommentAddedPayload payload.
type LeadCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}

// FollowUpScheduledPayload payload.
type FollowUpScheduledPayload struct {
	FollowUpID string    `json:"followup_id"`
	Date       time.Time `json:"date"`
	Time       string    `json:"time"`
}

// FollowUpDuePayload payload.
type FollowUpDuePayload struct {
	FollowUpID   string    `json:"followup_id"`
	LeadName     string    `json:"lead_name"`
	AssignedUser string    `json:"assigned_user"`
	Date         time.Time `json:"date"`
	Time         string    `json:"time"`
}

// AccountCreatedPayload payload.
type AccountCreatedPayload struct {
	AccountID   string      `json:"account_id"`
	Role        domain.Role `json:"role"`
	ReportingTo *string     `json:"reporting_to,omitempty"`
}
