package dto

import "github.com/spec-kit/lead-crm/internal/domain"

// DashboardResponse summarizes the caller's visible book of leads.
type DashboardResponse struct {
	TotalLeads        int64                       `json:"total_leads"`
	StatusCounts      map[domain.LeadStatus]int64 `json:"status_counts"`
	TeamSize          int                         `json:"team_size"`
	DueTodayFollowUps int                         `json:"due_today_followups"`
	OverdueFollowUps  int                         `json:"overdue_followups"`
	RecentActivity    []ActivityResponse          `json:"recent_activity"`
}

// TeamMemberReportResponse is one member's breakdown.
type TeamMemberReportResponse struct {
	AccountID    string                      `json:"account_id"`
	Name         string                      `json:"name"`
	Role         domain.Role                 `json:"role"`
	TotalLeads   int64                       `json:"total_leads"`
	StatusCounts map[domain.LeadStatus]int64 `json:"status_counts"`
}

// TeamReportResponse is the per-member team report.
type TeamReportResponse struct {
	Members []TeamMemberReportResponse `json:"members"`
}
