package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm/internal/api/dto"
	"github.com/spec-kit/lead-crm/internal/auth"
	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/service"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

// AccountsHandler manages account endpoints.
type AccountsHandler struct {
	service *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accountService *service.AccountService) *AccountsHandler {
	return &AccountsHandler{service: accountService}
}

// ListAccounts GET /accounts.
func (h *AccountsHandler) ListAccounts(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	accounts, err := h.service.List(c.Context(), principal.Account)
	if err != nil {
		return err
	}
	items := make([]dto.AccountResponse, 0, len(accounts))
	for _, entry := range accounts {
		resp := dto.NewAccountResponse(entry.Account)
		count := entry.LeadCount
		resp.LeadCount = &count
		items = append(items, resp)
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetAccount GET /accounts/:id.
func (h *AccountsHandler) GetAccount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	account, err := h.service.Get(c.Context(), principal.Account, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountResponse(*account)})
}

// CreateAccount POST /accounts.
func (h *AccountsHandler) CreateAccount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return apperrors.NewValidationError("name, email, password, role required", nil)
	}
	if len(req.Password) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	account, err := h.service.Create(c.Context(), principal.Account, service.CreateAccountInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		ReportingTo: req.ReportingTo,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewAccountResponse(*account)})
}

// UpdateAccount PATCH /accounts/:id.
func (h *AccountsHandler) UpdateAccount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.HasReportingTo = bodyHasField(c.Body(), "reporting_to")

	account, err := h.service.Update(c.Context(), principal.Account, c.Params("id"), service.UpdateAccountInput{
		Name:           req.Name,
		Email:          req.Email,
		Role:           req.Role,
		IsActive:       req.IsActive,
		ReportingTo:    req.ReportingTo,
		ReportingToSet: req.HasReportingTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountResponse(*account)})
}

// DeleteAccount DELETE /accounts/:id.
func (h *AccountsHandler) DeleteAccount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.SoftDelete(c.Context(), principal.Account, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}

// ReportingOptions GET /accounts/reporting-options.
func (h *AccountsHandler) ReportingOptions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	role := domain.Role(c.Query("role"))
	if !role.Valid() {
		return apperrors.NewValidationError("unknown role", nil)
	}
	var excludeID *string
	if exclude := c.Query("exclude"); exclude != "" {
		excludeID = &exclude
	}

	options, err := h.service.ReportingOptions(c.Context(), role, excludeID)
	if err != nil {
		return err
	}
	items := make([]dto.ReportingOptionResponse, 0, len(options))
	for _, option := range options {
		items = append(items, dto.ReportingOptionResponse{
			ID:   option.ID,
			Name: option.Name,
			Role: option.Role,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// bodyHasField reports whether the raw JSON body carries the key at
// all, so null values can be told apart from absent ones.
func bodyHasField(body []byte, key string) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return false
	}
	_, ok := raw[key]
	return ok
}
