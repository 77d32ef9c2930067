package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lead-crm/internal/auth"
	"github.com/spec-kit/lead-crm/internal/config"
	"github.com/spec-kit/lead-crm/internal/domain"
)

type memRevocationStore struct {
	revoked map[string]bool
}

func (s *memRevocationStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if s.revoked == nil {
		s.revoked = map[string]bool{}
	}
	s.revoked[tokenID] = true
	return nil
}

func (s *memRevocationStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.revoked[tokenID], nil
}

func newAuthFixture(t *testing.T) (*memAccountStore, *memRevocationStore, *AuthService) {
	t.Helper()
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4,
		CookieName:            "crm_token",
	}}

	hash, err := auth.HashPassword("opensesame", 4)
	require.NoError(t, err)
	accounts := newMemAccountStore(
		domain.Account{ID: "u1", Name: "Uma", Email: "uma@crm.test", PasswordHash: hash, Role: domain.RoleUser, IsActive: true},
		domain.Account{ID: "u2", Name: "Ugo", Email: "ugo@crm.test", PasswordHash: hash, Role: domain.RoleUser, IsActive: false},
	)
	revoked := &memRevocationStore{}
	return accounts, revoked, NewAuthService(cfg, accounts, revoked)
}

func TestLoginIssuesToken(t *testing.T) {
	_, _, service := newAuthFixture(t)

	account, token, exp, err := service.Login(context.Background(), "uma@crm.test", "opensesame")
	require.NoError(t, err)
	assert.Equal(t, "u1", account.ID)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))

	claims, err := service.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.AccountID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	_, _, service := newAuthFixture(t)
	ctx := context.Background()

	// Unknown email and wrong password read identically.
	_, _, _, err := service.Login(ctx, "nobody@crm.test", "opensesame")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
	assert.Contains(t, err.Error(), "invalid email or password")

	_, _, _, err = service.Login(ctx, "uma@crm.test", "wrong")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	_, _, service := newAuthFixture(t)

	_, _, _, err := service.Login(context.Background(), "ugo@crm.test", "opensesame")
	assert.Equal(t, "FORBIDDEN", errCode(t, err))
}

func TestLogoutRevokesToken(t *testing.T) {
	_, revoked, service := newAuthFixture(t)
	ctx := context.Background()

	_, token, _, err := service.Login(ctx, "uma@crm.test", "opensesame")
	require.NoError(t, err)
	claims, err := service.TokenManager().ParseToken(token)
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, claims))

	isRevoked, err := revoked.IsTokenRevoked(ctx, claims.RegisteredClaims.ID)
	require.NoError(t, err)
	assert.True(t, isRevoked)
}

func TestChangePassword(t *testing.T) {
	_, _, service := newAuthFixture(t)
	ctx := context.Background()

	err := service.ChangePassword(ctx, "u1", "wrong", "newpassword")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

	require.NoError(t, service.ChangePassword(ctx, "u1", "opensesame", "newpassword"))

	_, _, _, err = service.Login(ctx, "uma@crm.test", "opensesame")
	assert.Error(t, err)
	_, _, _, err = service.Login(ctx, "uma@crm.test", "newpassword")
	assert.NoError(t, err)
}
