package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/repository"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Account *domain.Account
	Claims  *Claims
	Token   string
}

// RevocationStore answers whether an issued token has been revoked.
type RevocationStore interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Middleware validates tokens and loads the caller's account.
type Middleware struct {
	tokens     *TokenManager
	accounts   repository.AccountRepository
	revoked    RevocationStore
	cookieName string
}

// NewMiddleware constructs the authentication gate.
func NewMiddleware(tokens *TokenManager, accounts repository.AccountRepository, revoked RevocationStore, cookieName string) *Middleware {
	if cookieName == "" {
		cookieName = "token"
	}
	return &Middleware{tokens: tokens, accounts: accounts, revoked: revoked, cookieName: cookieName}
}

// Handle enforces authentication for protected routes. The token comes
// from a bearer header or the session cookie; the account must still
// exist, be active, and not be soft-deleted.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	token := m.extractToken(c)
	if token == "" {
		return apperrors.NewUnauthorized("missing credentials")
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	if m.revoked != nil {
		revoked, err := m.revoked.IsTokenRevoked(c.Context(), claims.RegisteredClaims.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if revoked {
			return apperrors.NewUnauthorized("token revoked")
		}
	}

	account, err := m.accounts.GetByID(c.Context(), claims.AccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("account not found")
		}
		return apperrors.MapError(err)
	}
	if account.IsDeleted || !account.IsActive {
		return apperrors.NewUnauthorized("account inactive")
	}

	c.Locals(principalKey, &Principal{Account: account, Claims: claims, Token: token})
	return c.Next()
}

func (m *Middleware) extractToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Cookies(m.cookieName)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
