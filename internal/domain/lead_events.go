package domain

import "time"

// LeadComment is an append-only comment on a lead thread.
type LeadComment struct {
	ID         string
	LeadID     string
	Text       string
	AuthorID   string
	AuthorName string
	AuthorRole Role
	CreatedAt  time.Time
}

// RecurringInterval enumerates follow-up repetition periods.
type RecurringInterval string

const (
	RecurringDaily   RecurringInterval = "daily"
	RecurringWeekly  RecurringInterval = "weekly"
	RecurringMonthly RecurringInterval = "monthly"
)

// FollowUp is a scheduled callback on a lead.
type FollowUp struct {
	ID                string
	LeadID            string
	Date              time.Time
	Time              string
	Comment           string
	CreatedBy         string
	IsRecurring       bool
	RecurringInterval *RecurringInterval
	RecurringEndDate  *time.Time
	ReminderSent      bool
	CreatedAt         time.Time
}

// ActivityAction captures what a trail entry records.
type ActivityAction string

const (
	ActivityCreated        ActivityAction = "created"
	ActivityUpdated        ActivityAction = "updated"
	ActivityStatusChanged  ActivityAction = "status_changed"
	ActivityReassigned     ActivityAction = "reassigned"
	ActivityCommentAdded   ActivityAction = "comment_added"
	ActivityFollowUpAdded  ActivityAction = "followup_added"
	ActivityDeleted        ActivityAction = "deleted"
)

// ActivityEntry is an immutable audit trail record owned by a lead.
type ActivityEntry struct {
	ID              string
	LeadID          string
	Action          ActivityAction
	Description     string
	PerformedBy     string
	PerformedByName string
	Field           *string
	OldValue        *string
	NewValue        *string
	CreatedAt       time.Time
}
