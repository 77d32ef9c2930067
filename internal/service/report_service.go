package service

import (
	"context"
	"time"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/hierarchy"
	"github.com/spec-kit/lead-crm/internal/repository"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

const dashboardRecentActivity = 5

// ReportService aggregates lead numbers over the actor's scope.
type ReportService struct {
	leads     repository.LeadRepository
	accounts  repository.AccountRepository
	followUps repository.FollowUpRepository
	activity  repository.ActivityRepository
	resolver  *hierarchy.Resolver
	scoper    *hierarchy.Scoper
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	LeadRepo     repository.LeadRepository
	AccountRepo  repository.AccountRepository
	FollowUpRepo repository.FollowUpRepository
	ActivityRepo repository.ActivityRepository
	Resolver     *hierarchy.Resolver
	Scoper       *hierarchy.Scoper
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	return &ReportService{
		leads:     deps.LeadRepo,
		accounts:  deps.AccountRepo,
		followUps: deps.FollowUpRepo,
		activity:  deps.ActivityRepo,
		resolver:  deps.Resolver,
		scoper:    deps.Scoper,
	}
}

// Dashboard summarizes lead volume by status over the actor's scope.
type Dashboard struct {
	TotalLeads        int64
	StatusCounts      map[domain.LeadStatus]int64
	TeamSize          int
	DueTodayFollowUps int
	OverdueFollowUps  int
	RecentActivity    []repository.ActivityFeedItem
}

// MemberReport is one team member's lead breakdown.
type MemberReport struct {
	AccountID    string
	Name         string
	Role         domain.Role
	TotalLeads   int64
	StatusCounts map[domain.LeadStatus]int64
}

// TeamReport breaks lead performance down per subordinate.
type TeamReport struct {
	Members []MemberReport
}

// Dashboard returns the status breakdown of the actor's visible leads.
// For an admin that is the whole book; for everyone else it covers the
// leads they and their reporting tree own.
func (s *ReportService) Dashboard(ctx context.Context, actor *domain.Account) (*Dashboard, error) {
	scope, err := s.scoper.LeadScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	counts, err := s.leads.StatusCounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dueToday, err := s.followUps.ListDueBetween(ctx, scope, startOfToday, startOfToday.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	overdue, err := s.followUps.ListOverdue(ctx, scope, startOfToday)
	if err != nil {
		return nil, err
	}

	recent, err := s.activity.ListFeed(ctx, repository.ActivityFeedFilter{
		Scope: scope,
		Limit: dashboardRecentActivity,
	})
	if err != nil {
		return nil, err
	}

	teamSize := 0
	if !scope.All {
		// Scope includes the actor themselves.
		teamSize = len(scope.AccountIDs) - 1
		if teamSize < 0 {
			teamSize = 0
		}
	} else {
		all, err := s.accounts.List(ctx, repository.AccountFilter{ExcludeID: &actor.ID})
		if err != nil {
			return nil, err
		}
		teamSize = len(all)
	}

	return &Dashboard{
		TotalLeads:        total,
		StatusCounts:      counts,
		TeamSize:          teamSize,
		DueTodayFollowUps: len(dueToday),
		OverdueFollowUps:  len(overdue),
		RecentActivity:    recent,
	}, nil
}

// TeamReport breaks the actor's team down per member. Only managers
// and team leaders run team reports.
func (s *ReportService) TeamReport(ctx context.Context, actor *domain.Account) (*TeamReport, error) {
	if actor.Role != domain.RoleManager && actor.Role != domain.RoleTeamLeader {
		return nil, apperrors.NewForbidden("team reports are limited to managers and team leaders")
	}

	members, err := s.resolver.ManageableAccounts(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	scope, err := s.scoper.LeadScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	rows, err := s.leads.StatusCountsByAssignee(ctx, scope)
	if err != nil {
		return nil, err
	}

	byAssignee := make(map[string]map[domain.LeadStatus]int64)
	for _, row := range rows {
		counts, ok := byAssignee[row.AccountID]
		if !ok {
			counts = make(map[domain.LeadStatus]int64)
			byAssignee[row.AccountID] = counts
		}
		counts[row.Status] += row.Count
	}

	report := &TeamReport{Members: make([]MemberReport, 0, len(members))}
	for _, member := range members {
		counts := byAssignee[member.ID]
		if counts == nil {
			counts = make(map[domain.LeadStatus]int64)
		}
		var total int64
		for _, n := range counts {
			total += n
		}
		report.Members = append(report.Members, MemberReport{
			AccountID:    member.ID,
			Name:         member.Name,
			Role:         member.Role,
			TotalLeads:   total,
			StatusCounts: counts,
		})
	}
	return report, nil
}
