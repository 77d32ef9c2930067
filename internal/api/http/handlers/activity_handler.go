package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm/internal/api/dto"
	"github.com/spec-kit/lead-crm/internal/auth"
	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/service"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

// ActivityHandler serves the cross-lead activity feed.
type ActivityHandler struct {
	service *service.LeadService
}

// NewActivityHandler constructs handler.
func NewActivityHandler(leadService *service.LeadService) *ActivityHandler {
	return &ActivityHandler{service: leadService}
}

// ListActivity GET /activity.
func (h *ActivityHandler) ListActivity(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.ActivityFeedInput{
		Page:  parseInt(c.Query("page"), 1),
		Limit: parseInt(c.Query("limit"), 20),
	}
	if leadID := c.Query("lead_id"); leadID != "" {
		input.LeadID = &leadID
	}
	if actionStr := c.Query("action"); actionStr != "" {
		action := domain.ActivityAction(actionStr)
		input.Action = &action
	}
	if from := parseTime(c.Query("from")); from != nil {
		input.From = from
	}
	if to := parseTime(c.Query("to")); to != nil {
		input.To = to
	}

	page, err := h.service.ListActivity(c.Context(), principal.Account, input)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(page.Items))
	for _, item := range page.Items {
		resp := dto.NewActivityResponse(item.Entry)
		resp.LeadName = item.LeadName
		items = append(items, resp)
	}
	return c.JSON(fiber.Map{"data": dto.ActivityFeedResponse{
		Items: items,
		Page:  page.Page,
		Limit: page.Limit,
		Total: page.Total,
		Pages: page.Pages,
	}})
}
