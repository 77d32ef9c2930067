package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm/internal/api/dto"
	"github.com/spec-kit/lead-crm/internal/auth"
	"github.com/spec-kit/lead-crm/internal/service"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

// RemindersHandler serves follow-up reminder and calendar endpoints.
type RemindersHandler struct {
	service *service.ReminderService
}

// NewRemindersHandler constructs handler.
func NewRemindersHandler(reminderService *service.ReminderService) *RemindersHandler {
	return &RemindersHandler{service: reminderService}
}

// Upcoming GET /reminders.
func (h *RemindersHandler) Upcoming(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	buckets, err := h.service.Upcoming(c.Context(), principal.Account)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReminderBucketsResponse{
		Today:    dto.NewReminderResponses(buckets.Today),
		Tomorrow: dto.NewReminderResponses(buckets.Tomorrow),
		Overdue:  dto.NewReminderResponses(buckets.Overdue),
	}})
}

// Calendar GET /calendar.
func (h *RemindersHandler) Calendar(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	now := time.Now()
	year := parseInt(c.Query("year"), now.Year())
	monthNum := parseInt(c.Query("month"), int(now.Month()))
	if monthNum < 1 || monthNum > 12 {
		return apperrors.NewValidationError("month must be between 1 and 12", nil)
	}

	days, err := h.service.Calendar(c.Context(), principal.Account, year, time.Month(monthNum))
	if err != nil {
		return err
	}
	items := make([]dto.CalendarDayResponse, 0, len(days))
	for _, day := range days {
		items = append(items, dto.CalendarDayResponse{
			Date:      day.Date.Format("2006-01-02"),
			FollowUps: dto.NewReminderResponses(day.FollowUps),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
