package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm/internal/api/dto"
	"github.com/spec-kit/lead-crm/internal/auth"
	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/service"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

// LeadsHandler manages lead endpoints.
type LeadsHandler struct {
	service *service.LeadService
}

// NewLeadsHandler constructs handler.
func NewLeadsHandler(leadService *service.LeadService) *LeadsHandler {
	return &LeadsHandler{service: leadService}
}

// CreateLead POST /leads.
func (h *LeadsHandler) CreateLead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		return apperrors.NewValidationError("name and phone required", nil)
	}

	lead, err := h.service.Create(c.Context(), principal.Account, service.CreateLeadInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Status:       req.Status,
		AssignedUser: req.AssignedUser,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewLeadResponse(*lead)})
}

// ListLeads GET /leads.
func (h *LeadsHandler) ListLeads(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.ListLeadsInput{
		Page:  parseInt(c.Query("page"), 1),
		Limit: parseInt(c.Query("limit"), 10),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.LeadStatus(statusStr)
		input.Status = &status
	}
	if assigned := c.Query("assigned_user"); assigned != "" {
		for _, part := range strings.Split(assigned, ",") {
			if id := strings.TrimSpace(part); id != "" {
				input.AssignedUsers = append(input.AssignedUsers, id)
			}
		}
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		input.Search = &search
	}

	page, err := h.service.List(c.Context(), principal.Account, input)
	if err != nil {
		return err
	}
	items := make([]dto.LeadResponse, 0, len(page.Leads))
	for _, lead := range page.Leads {
		items = append(items, dto.NewLeadResponse(lead))
	}
	return c.JSON(fiber.Map{"data": dto.LeadListResponse{
		Leads: items,
		Page:  page.Page,
		Limit: page.Limit,
		Total: page.Total,
		Pages: page.Pages,
	}})
}

// GetLead GET /leads/:id.
func (h *LeadsHandler) GetLead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	detail, err := h.service.Get(c.Context(), principal.Account, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": leadDetailResponse(detail)})
}

// UpdateLead PATCH /leads/:id.
func (h *LeadsHandler) UpdateLead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	lead, err := h.service.Update(c.Context(), principal.Account, c.Params("id"), service.UpdateLeadInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Status:       req.Status,
		AssignedUser: req.AssignedUser,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewLeadResponse(*lead)})
}

// DeleteLead DELETE /leads/:id.
func (h *LeadsHandler) DeleteLead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.SoftDelete(c.Context(), principal.Account, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}

// AddComment POST /leads/:id/comments.
func (h *LeadsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Text) == "" {
		return apperrors.NewValidationError("text required", nil)
	}

	comment, err := h.service.AddComment(c.Context(), principal.Account, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(*comment)})
}

// AddFollowUp POST /leads/:id/followups.
func (h *LeadsHandler) AddFollowUp(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateFollowUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Date.IsZero() {
		return apperrors.NewValidationError("date required", nil)
	}
	if req.IsRecurring && req.RecurringInterval == nil {
		return apperrors.NewValidationError("recurring_interval required for recurring follow-ups", nil)
	}

	followUp, err := h.service.AddFollowUp(c.Context(), principal.Account, c.Params("id"), service.AddFollowUpInput{
		Date:              req.Date,
		Time:              req.Time,
		Comment:           req.Comment,
		IsRecurring:       req.IsRecurring,
		RecurringInterval: req.RecurringInterval,
		RecurringEndDate:  req.RecurringEndDate,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewFollowUpResponse(*followUp)})
}

func leadDetailResponse(detail *service.LeadDetail) dto.LeadDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for _, comment := range detail.Comments {
		comments = append(comments, dto.NewCommentResponse(comment))
	}
	followUps := make([]dto.FollowUpResponse, 0, len(detail.FollowUps))
	for _, followUp := range detail.FollowUps {
		followUps = append(followUps, dto.NewFollowUpResponse(followUp))
	}
	activity := make([]dto.ActivityResponse, 0, len(detail.Activity))
	for _, entry := range detail.Activity {
		activity = append(activity, dto.NewActivityResponse(entry))
	}
	return dto.LeadDetailResponse{
		LeadResponse: dto.NewLeadResponse(detail.Lead),
		Comments:     comments,
		FollowUps:    followUps,
		Activity:     activity,
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}
