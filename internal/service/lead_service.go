package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/events"
	"github.com/spec-kit/lead-crm/internal/hierarchy"
	"github.com/spec-kit/lead-crm/internal/repository"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

// LeadService coordinates lead workflows. Every mutation re-fetches
// its target with the actor's scope predicate inline in the same
// query, so a stale authorization decision can never be replayed.
type LeadService struct {
	leads      repository.LeadRepository
	comments   repository.CommentRepository
	followUps  repository.FollowUpRepository
	activity   repository.ActivityRepository
	resolver   *hierarchy.Resolver
	scoper     *hierarchy.Scoper
	dispatcher events.Dispatcher
}

// LeadDependencies bundles repositories for the lead service.
type LeadDependencies struct {
	LeadRepo     repository.LeadRepository
	CommentRepo  repository.CommentRepository
	FollowUpRepo repository.FollowUpRepository
	ActivityRepo repository.ActivityRepository
	Resolver     *hierarchy.Resolver
	Scoper       *hierarchy.Scoper
	Dispatcher   events.Dispatcher
}

// NewLeadService constructs the service.
func NewLeadService(deps LeadDependencies) *LeadService {
	return &LeadService{
		leads:      deps.LeadRepo,
		comments:   deps.CommentRepo,
		followUps:  deps.FollowUpRepo,
		activity:   deps.ActivityRepo,
		resolver:   deps.Resolver,
		scoper:     deps.Scoper,
		dispatcher: deps.Dispatcher,
	}
}

// CreateLeadInput describes lead creation payload.
type CreateLeadInput struct {
	Name         string
	Email        *string
	Phone        string
	Address      string
	Status       domain.LeadStatus
	AssignedUser string
}

// UpdateLeadInput describes lead edit payload.
type UpdateLeadInput struct {
	Name         *string
	Email        *string
	Phone        *string
	Address      *string
	Status       *domain.LeadStatus
	AssignedUser *string
}

// ListLeadsInput describes listing filters.
type ListLeadsInput struct {
	Status        *domain.LeadStatus
	AssignedUsers []string
	Search        *string
	Page          int
	Limit         int
}

// LeadPage is one page of scoped leads.
type LeadPage struct {
	Leads []domain.Lead
	Page  int
	Limit int
	Total int64
	Pages int
}

// LeadDetail is a lead with its child collections.
type LeadDetail struct {
	Lead      domain.Lead
	Comments  []domain.LeadComment
	FollowUps []domain.FollowUp
	Activity  []domain.ActivityEntry
}

// AddFollowUpInput describes a scheduled follow-up.
type AddFollowUpInput struct {
	Date              time.Time
	Time              string
	Comment           string
	IsRecurring       bool
	RecurringInterval *domain.RecurringInterval
	RecurringEndDate  *time.Time
}

// ActivityFeedInput describes cross-lead activity filters.
type ActivityFeedInput struct {
	LeadID *string
	Action *domain.ActivityAction
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// ActivityPage is one page of the scoped activity feed.
type ActivityPage struct {
	Items []repository.ActivityFeedItem
	Page  int
	Limit int
	Total int64
	Pages int
}

// Create creates a lead. Non-admin callers omitting an assignee get
// the lead themselves; every explicit assignee is checked against the
// actor's assignable set.
func (s *LeadService) Create(ctx context.Context, actor *domain.Account, input CreateLeadInput) (*domain.Lead, error) {
	assignee := input.AssignedUser
	if assignee == "" {
		if actor.Role == domain.RoleAdmin {
			return nil, apperrors.NewValidationError("assigned user is required", nil)
		}
		assignee = actor.ID
	}

	allowed, err := s.resolver.CanAssignToUser(ctx, actor.ID, assignee)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.NewValidationError("cannot assign lead to that user", nil)
	}

	status := input.Status
	if status == "" {
		status = domain.LeadStatusNew
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown lead status", nil)
	}

	source := domain.LeadSourceManual
	if actor.Role == domain.RoleAdmin {
		source = domain.LeadSourceAdminAssigned
	}

	lead := &domain.Lead{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		Source:       source,
		Status:       status,
		AssignedUser: assignee,
		CreatedBy:    actor.ID,
	}
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, err
	}

	if err := s.record(ctx, actor, lead.ID, domain.ActivityCreated,
		fmt.Sprintf("Lead created by %s", actor.Name), nil, nil, nil); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventLeadCreated,
		LeadID:  lead.ID,
		ActorID: actor.ID,
		Payload: events.LeadCreatedPayload{
			Name:         lead.Name,
			Source:       lead.Source,
			Status:       lead.Status,
			AssignedUser: lead.AssignedUser,
		},
	})
	return lead, nil
}

// List returns a page of leads visible to the actor. Requested
// assigned-user filters outside the actor's scope are dropped; a
// filter entirely outside scope yields an empty page.
func (s *LeadService) List(ctx context.Context, actor *domain.Account, input ListLeadsInput) (*LeadPage, error) {
	scope, err := s.scoper.LeadScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	scope = hierarchy.Narrow(scope, input.AssignedUsers)

	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown lead status", nil)
	}

	page := input.Page
	if page <= 0 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	filter := repository.LeadFilter{
		Scope:  scope,
		Status: input.Status,
		Search: input.Search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	leads, err := s.leads.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.leads.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &LeadPage{
		Leads: leads,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pageCount(total, limit),
	}, nil
}

// Get fetches a lead with its child collections. Out-of-scope leads
// read as not found.
func (s *LeadService) Get(ctx context.Context, actor *domain.Account, leadID string) (*LeadDetail, error) {
	lead, err := s.getInScope(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	followUps, err := s.followUps.ListByLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}
	activity, err := s.activity.ListByLead(ctx, lead.ID)
	if err != nil {
		return nil, err
	}

	return &LeadDetail{
		Lead:      *lead,
		Comments:  comments,
		FollowUps: followUps,
		Activity:  activity,
	}, nil
}

// Update edits a lead in scope, recording status changes and
// reassignments in the activity trail.
func (s *LeadService) Update(ctx context.Context, actor *domain.Account, leadID string, input UpdateLeadInput) (*domain.Lead, error) {
	lead, err := s.getInScope(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}

	oldStatus := lead.Status
	statusChanged := false
	if input.Status != nil && *input.Status != lead.Status {
		if !input.Status.Valid() {
			return nil, apperrors.NewValidationError("unknown lead status", nil)
		}
		statusChanged = true
		lead.Status = *input.Status
	}

	oldAssignee := lead.AssignedUser
	reassigned := false
	if input.AssignedUser != nil && *input.AssignedUser != lead.AssignedUser {
		allowed, err := s.resolver.CanAssignToUser(ctx, actor.ID, *input.AssignedUser)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, apperrors.NewValidationError("cannot assign lead to that user", nil)
		}
		reassigned = true
		lead.AssignedUser = *input.AssignedUser
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		lead.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		lead.Email = input.Email
	}
	if input.Phone != nil && strings.TrimSpace(*input.Phone) != "" {
		lead.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil && strings.TrimSpace(*input.Address) != "" {
		lead.Address = strings.TrimSpace(*input.Address)
	}
	lead.UpdatedBy = &actor.ID

	// The trail and events describe persisted changes only, so they
	// are written after the update succeeds.
	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, err
	}

	if statusChanged {
		from := string(oldStatus)
		to := string(lead.Status)
		field := "status"
		if err := s.record(ctx, actor, lead.ID, domain.ActivityStatusChanged,
			fmt.Sprintf("Status changed from %s to %s by %s", from, to, actor.Name),
			&field, &from, &to); err != nil {
			return nil, err
		}
		s.publish(ctx, events.Event{
			Type:    events.EventLeadStatusChanged,
			LeadID:  lead.ID,
			ActorID: actor.ID,
			Payload: events.LeadStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: lead.Status,
			},
		})
	}

	if reassigned {
		newAssignee := lead.AssignedUser
		field := "assigned_user"
		if err := s.record(ctx, actor, lead.ID, domain.ActivityReassigned,
			fmt.Sprintf("Lead reassigned by %s", actor.Name),
			&field, &oldAssignee, &newAssignee); err != nil {
			return nil, err
		}
		s.publish(ctx, events.Event{
			Type:    events.EventLeadReassigned,
			LeadID:  lead.ID,
			ActorID: actor.ID,
			Payload: events.LeadReassignedPayload{
				OldAssignedUser: oldAssignee,
				NewAssignedUser: newAssignee,
			},
		})
	}
	return lead, nil
}

// SoftDelete flags a lead in scope as deleted.
func (s *LeadService) SoftDelete(ctx context.Context, actor *domain.Account, leadID string) error {
	lead, err := s.getInScope(ctx, actor, leadID)
	if err != nil {
		return err
	}
	lead.IsDeleted = true
	lead.UpdatedBy = &actor.ID
	if err := s.leads.Update(ctx, lead); err != nil {
		return err
	}

	if err := s.record(ctx, actor, lead.ID, domain.ActivityDeleted,
		fmt.Sprintf("Lead deleted by %s", actor.Name), nil, nil, nil); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventLeadDeleted,
		LeadID:  lead.ID,
		ActorID: actor.ID,
	})
	return nil
}

// AddComment appends a comment to a lead in scope.
func (s *LeadService) AddComment(ctx context.Context, actor *domain.Account, leadID, text string) (*domain.LeadComment, error) {
	lead, err := s.getInScope(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}

	comment := &domain.LeadComment{
		LeadID:     lead.ID,
		Text:       strings.TrimSpace(text),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		AuthorRole: actor.Role,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if err := s.record(ctx, actor, lead.ID, domain.ActivityCommentAdded,
		fmt.Sprintf("Comment added by %s", actor.Name), nil, nil, nil); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventLeadCommentAdded,
		LeadID:  lead.ID,
		ActorID: actor.ID,
		Payload: events.LeadCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    actor.ID,
			BodyPreview: preview(comment.Text, 120),
		},
	})
	return comment, nil
}

// AddFollowUp schedules a follow-up on a lead in scope.
func (s *LeadService) AddFollowUp(ctx context.Context, actor *domain.Account, leadID string, input AddFollowUpInput) (*domain.FollowUp, error) {
	lead, err := s.getInScope(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}

	followUp := &domain.FollowUp{
		LeadID:            lead.ID,
		Date:              input.Date,
		Time:              input.Time,
		Comment:           strings.TrimSpace(input.Comment),
		CreatedBy:         actor.ID,
		IsRecurring:       input.IsRecurring,
		RecurringInterval: input.RecurringInterval,
		RecurringEndDate:  input.RecurringEndDate,
	}
	if err := s.followUps.Create(ctx, followUp); err != nil {
		return nil, err
	}

	if err := s.record(ctx, actor, lead.ID, domain.ActivityFollowUpAdded,
		fmt.Sprintf("Follow-up scheduled by %s", actor.Name), nil, nil, nil); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventFollowUpScheduled,
		LeadID:  lead.ID,
		ActorID: actor.ID,
		Payload: events.FollowUpScheduledPayload{
			FollowUpID: followUp.ID,
			Date:       followUp.Date,
			Time:       followUp.Time,
		},
	})
	return followUp, nil
}

// ListActivity returns a page of the scoped activity feed. A lead
// filter outside the actor's scope yields an empty page, not other
// teams' history.
func (s *LeadService) ListActivity(ctx context.Context, actor *domain.Account, input ActivityFeedInput) (*ActivityPage, error) {
	scope, err := s.scoper.LeadScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	page := input.Page
	if page <= 0 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	if input.LeadID != nil {
		if _, err := s.leads.GetInScope(ctx, *input.LeadID, scope); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &ActivityPage{Items: []repository.ActivityFeedItem{}, Page: page, Limit: limit}, nil
			}
			return nil, err
		}
	}

	filter := repository.ActivityFeedFilter{
		Scope:  scope,
		LeadID: input.LeadID,
		Action: input.Action,
		From:   input.From,
		To:     input.To,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	items, err := s.activity.ListFeed(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.activity.CountFeed(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ActivityPage{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pageCount(total, limit),
	}, nil
}

// getInScope recomputes the actor's scope and fetches the lead with
// that predicate in one query. Misses are reported as not found.
func (s *LeadService) getInScope(ctx context.Context, actor *domain.Account, leadID string) (*domain.Lead, error) {
	scope, err := s.scoper.LeadScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	lead, err := s.leads.GetInScope(ctx, leadID, scope)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("lead", nil)
		}
		return nil, err
	}
	return lead, nil
}

func (s *LeadService) record(ctx context.Context, actor *domain.Account, leadID string, action domain.ActivityAction, description string, field, oldValue, newValue *string) error {
	if s.activity == nil {
		return nil
	}
	entry := &domain.ActivityEntry{
		LeadID:          leadID,
		Action:          action,
		Description:     description,
		PerformedBy:     actor.ID,
		PerformedByName: actor.Name,
		Field:           field,
		OldValue:        oldValue,
		NewValue:        newValue,
	}
	return s.activity.Create(ctx, entry)
}

func (s *LeadService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func pageCount(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func preview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
