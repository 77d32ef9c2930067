package service

import (
	"context"
	"time"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/hierarchy"
	"github.com/spec-kit/lead-crm/internal/repository"
)

// ReminderService answers "what needs attention" questions over the
// actor's visible follow-ups.
type ReminderService struct {
	followUps repository.FollowUpRepository
	scoper    *hierarchy.Scoper
}

// NewReminderService constructs the service.
func NewReminderService(followUps repository.FollowUpRepository, scoper *hierarchy.Scoper) *ReminderService {
	return &ReminderService{followUps: followUps, scoper: scoper}
}

// ReminderBuckets groups visible follow-ups by urgency.
type ReminderBuckets struct {
	Today    []repository.FollowUpReminder
	Tomorrow []repository.FollowUpReminder
	Overdue  []repository.FollowUpReminder
}

// CalendarDay is one day of the month view.
type CalendarDay struct {
	Date      time.Time
	FollowUps []repository.FollowUpReminder
}

// Upcoming splits the actor's visible follow-ups into today, tomorrow
// and overdue buckets. Day boundaries are taken in the server's local
// time zone.
func (s *ReminderService) Upcoming(ctx context.Context, actor *domain.Account) (*ReminderBuckets, error) {
	scope, err := s.scoper.LeadScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfTomorrow := startOfToday.AddDate(0, 0, 1)
	endOfTomorrow := startOfTomorrow.AddDate(0, 0, 1)

	today, err := s.followUps.ListDueBetween(ctx, scope, startOfToday, startOfTomorrow)
	if err != nil {
		return nil, err
	}
	tomorrow, err := s.followUps.ListDueBetween(ctx, scope, startOfTomorrow, endOfTomorrow)
	if err != nil {
		return nil, err
	}
	overdue, err := s.followUps.ListOverdue(ctx, scope, startOfToday)
	if err != nil {
		return nil, err
	}

	return &ReminderBuckets{
		Today:    today,
		Tomorrow: tomorrow,
		Overdue:  overdue,
	}, nil
}

// Calendar returns the actor's visible follow-ups for one month,
// grouped by day. Days without follow-ups are omitted.
func (s *ReminderService) Calendar(ctx context.Context, actor *domain.Account, year int, month time.Month) ([]CalendarDay, error) {
	scope, err := s.scoper.LeadScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	monthEnd := monthStart.AddDate(0, 1, 0)

	reminders, err := s.followUps.ListDueBetween(ctx, scope, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time][]repository.FollowUpReminder)
	var order []time.Time
	for _, reminder := range reminders {
		d := reminder.FollowUp.Date
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		if _, ok := byDay[day]; !ok {
			order = append(order, day)
		}
		byDay[day] = append(byDay[day], reminder)
	}

	days := make([]CalendarDay, 0, len(order))
	for _, day := range order {
		days = append(days, CalendarDay{Date: day, FollowUps: byDay[day]})
	}
	return days, nil
}
