package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm/internal/api/dto"
	"github.com/spec-kit/lead-crm/internal/auth"
	"github.com/spec-kit/lead-crm/internal/service"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

// ReportsHandler serves dashboard and team report endpoints.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Dashboard GET /dashboard.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	dashboard, err := h.service.Dashboard(c.Context(), principal.Account)
	if err != nil {
		return err
	}
	recent := make([]dto.ActivityResponse, 0, len(dashboard.RecentActivity))
	for _, item := range dashboard.RecentActivity {
		resp := dto.NewActivityResponse(item.Entry)
		resp.LeadName = item.LeadName
		recent = append(recent, resp)
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		TotalLeads:        dashboard.TotalLeads,
		StatusCounts:      dashboard.StatusCounts,
		TeamSize:          dashboard.TeamSize,
		DueTodayFollowUps: dashboard.DueTodayFollowUps,
		OverdueFollowUps:  dashboard.OverdueFollowUps,
		RecentActivity:    recent,
	}})
}

// TeamReport GET /reports/team.
func (h *ReportsHandler) TeamReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	report, err := h.service.TeamReport(c.Context(), principal.Account)
	if err != nil {
		return err
	}
	members := make([]dto.TeamMemberReportResponse, 0, len(report.Members))
	for _, member := range report.Members {
		members = append(members, dto.TeamMemberReportResponse{
			AccountID:    member.AccountID,
			Name:         member.Name,
			Role:         member.Role,
			TotalLeads:   member.TotalLeads,
			StatusCounts: member.StatusCounts,
		})
	}
	return c.JSON(fiber.Map{"data": dto.TeamReportResponse{Members: members}})
}
