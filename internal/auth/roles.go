package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-crm/internal/domain"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

// RequireRole ensures the authenticated account holds one of the
// allowed roles. With no arguments it only requires authentication.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Account == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Account.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin restricts a route to admins.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
