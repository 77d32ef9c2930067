package dto

import (
	"time"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/repository"
)

// CreateLeadRequest payload.
type CreateLeadRequest struct {
	Name         string            `json:"name"`
	Email        *string           `json:"email"`
	Phone        string            `json:"phone"`
	Address      string            `json:"address"`
	Status       domain.LeadStatus `json:"status"`
	AssignedUser string            `json:"assigned_user"`
}

// UpdateLeadRequest payload.
type UpdateLeadRequest struct {
	Name         *string            `json:"name"`
	Email        *string            `json:"email"`
	Phone        *string            `json:"phone"`
	Address      *string            `json:"address"`
	Status       *domain.LeadStatus `json:"status"`
	AssignedUser *string            `json:"assigned_user"`
}

// LeadResponse is the wire shape of a lead.
type LeadResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        *string           `json:"email"`
	Phone        string            `json:"phone"`
	Address      string            `json:"address"`
	Source       domain.LeadSource `json:"source"`
	Status       domain.LeadStatus `json:"status"`
	AssignedUser string            `json:"assigned_user"`
	CreatedBy    string            `json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// LeadListResponse is a page of leads.
type LeadListResponse struct {
	Leads []LeadResponse `json:"leads"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int64          `json:"total"`
	Pages int            `json:"pages"`
}

// LeadDetailResponse provides full lead info.
type LeadDetailResponse struct {
	LeadResponse
	Comments  []CommentResponse  `json:"comments"`
	FollowUps []FollowUpResponse `json:"followups"`
	Activity  []ActivityResponse `json:"activity"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// CommentResponse represents one thread comment.
type CommentResponse struct {
	ID         string      `json:"id"`
	Text       string      `json:"text"`
	AuthorID   string      `json:"author_id"`
	AuthorName string      `json:"author_name"`
	AuthorRole domain.Role `json:"author_role"`
	CreatedAt  time.Time   `json:"created_at"`
}

// CreateFollowUpRequest payload.
type CreateFollowUpRequest struct {
	Date              time.Time                 `json:"date"`
	Time              string                    `json:"time"`
	Comment           string                    `json:"comment"`
	IsRecurring       bool                      `json:"is_recurring"`
	RecurringInterval *domain.RecurringInterval `json:"recurring_interval"`
	RecurringEndDate  *time.Time                `json:"recurring_end_date"`
}

// FollowUpResponse represents a scheduled follow-up.
type FollowUpResponse struct {
	ID                string                    `json:"id"`
	LeadID            string                    `json:"lead_id"`
	Date              time.Time                 `json:"date"`
	Time              string                    `json:"time"`
	Comment           string                    `json:"comment"`
	CreatedBy         string                    `json:"created_by"`
	IsRecurring       bool                      `json:"is_recurring"`
	RecurringInterval *domain.RecurringInterval `json:"recurring_interval,omitempty"`
	RecurringEndDate  *time.Time                `json:"recurring_end_date,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
}

// ActivityResponse represents an audit trail entry.
type ActivityResponse struct {
	ID              string                `json:"id"`
	LeadID          string                `json:"lead_id"`
	LeadName        string                `json:"lead_name,omitempty"`
	Action          domain.ActivityAction `json:"action"`
	Description     string                `json:"description"`
	PerformedBy     string                `json:"performed_by"`
	PerformedByName string                `json:"performed_by_name"`
	Field           *string               `json:"field,omitempty"`
	OldValue        *string               `json:"old_value,omitempty"`
	NewValue        *string               `json:"new_value,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// ActivityFeedResponse is a page of the activity feed.
type ActivityFeedResponse struct {
	Items []ActivityResponse `json:"items"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Total int64              `json:"total"`
	Pages int                `json:"pages"`
}

// ReminderResponse joins a follow-up with its lead and owner.
type ReminderResponse struct {
	FollowUp         FollowUpResponse `json:"followup"`
	LeadName         string           `json:"lead_name"`
	AssignedUser     string           `json:"assigned_user"`
	AssignedUserName string           `json:"assigned_user_name"`
}

// ReminderBucketsResponse groups reminders by urgency.
type ReminderBucketsResponse struct {
	Today    []ReminderResponse `json:"today"`
	Tomorrow []ReminderResponse `json:"tomorrow"`
	Overdue  []ReminderResponse `json:"overdue"`
}

// CalendarDayResponse is one day of the month view.
type CalendarDayResponse struct {
	Date      string             `json:"date"`
	FollowUps []ReminderResponse `json:"followups"`
}

// NewLeadResponse maps a domain lead.
func NewLeadResponse(lead domain.Lead) LeadResponse {
	return LeadResponse{
		ID:           lead.ID,
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        lead.Phone,
		Address:      lead.Address,
		Source:       lead.Source,
		Status:       lead.Status,
		AssignedUser: lead.AssignedUser,
		CreatedBy:    lead.CreatedBy,
		CreatedAt:    lead.CreatedAt,
		UpdatedAt:    lead.UpdatedAt,
	}
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(comment domain.LeadComment) CommentResponse {
	return CommentResponse{
		ID:         comment.ID,
		Text:       comment.Text,
		AuthorID:   comment.AuthorID,
		AuthorName: comment.AuthorName,
		AuthorRole: comment.AuthorRole,
		CreatedAt:  comment.CreatedAt,
	}
}

// NewFollowUpResponse maps a domain follow-up.
func NewFollowUpResponse(followUp domain.FollowUp) FollowUpResponse {
	return FollowUpResponse{
		ID:                followUp.ID,
		LeadID:            followUp.LeadID,
		Date:              followUp.Date,
		Time:              followUp.Time,
		Comment:           followUp.Comment,
		CreatedBy:         followUp.CreatedBy,
		IsRecurring:       followUp.IsRecurring,
		RecurringInterval: followUp.RecurringInterval,
		RecurringEndDate:  followUp.RecurringEndDate,
		CreatedAt:         followUp.CreatedAt,
	}
}

// NewActivityResponse maps a domain activity entry.
func NewActivityResponse(entry domain.ActivityEntry) ActivityResponse {
	return ActivityResponse{
		ID:              entry.ID,
		LeadID:          entry.LeadID,
		Action:          entry.Action,
		Description:     entry.Description,
		PerformedBy:     entry.PerformedBy,
		PerformedByName: entry.PerformedByName,
		Field:           entry.Field,
		OldValue:        entry.OldValue,
		NewValue:        entry.NewValue,
		CreatedAt:       entry.CreatedAt,
	}
}

// NewReminderResponse maps a joined reminder row.
func NewReminderResponse(reminder repository.FollowUpReminder) ReminderResponse {
	return ReminderResponse{
		FollowUp:         NewFollowUpResponse(reminder.FollowUp),
		LeadName:         reminder.LeadName,
		AssignedUser:     reminder.AssignedUser,
		AssignedUserName: reminder.AssignedUserName,
	}
}

// NewReminderResponses maps a reminder slice, never returning nil.
func NewReminderResponses(reminders []repository.FollowUpReminder) []ReminderResponse {
	out := make([]ReminderResponse, 0, len(reminders))
	for _, reminder := range reminders {
		out = append(out, NewReminderResponse(reminder))
	}
	return out
}
