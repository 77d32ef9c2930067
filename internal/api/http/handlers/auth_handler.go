package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm/internal/api/dto"
	"github.com/spec-kit/lead-crm/internal/auth"
	"github.com/spec-kit/lead-crm/internal/service"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

// AuthHandler exposes login, logout and session endpoints.
type AuthHandler struct {
	authService    *service.AuthService
	accountService *service.AccountService
	cookieName     string
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, accountService *service.AccountService, cookieName string) *AuthHandler {
	return &AuthHandler{authService: authService, accountService: accountService, cookieName: cookieName}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	account, token, exp, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Expires:  exp,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"data": dto.LoginResponse{
			Token:     token,
			ExpiresAt: exp,
			Account:   dto.NewAccountResponse(*account),
		},
	})
}

// Logout handles POST /auth/logout. The presented token is denylisted
// until its natural expiry.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.authService.Logout(c.Context(), principal.Claims); err != nil {
		return err
	}
	c.ClearCookie(h.cookieName)
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "logged_out"}})
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{
		"data": dto.SessionResponse{
			Account:        dto.NewAccountResponse(*principal.Account),
			CreatableRoles: h.accountService.CreatableRoles(principal.Account),
		},
	})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current and new password required", nil)
	}
	if len(req.NewPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	if err := h.authService.ChangePassword(c.Context(), principal.Account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}
