package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/events"
)

type accountFixture struct {
	accounts   *memAccountStore
	leads      *memLeadStore
	dispatcher *recordingDispatcher
	service    *AccountService
}

func newAccountFixture(leads ...domain.Lead) *accountFixture {
	accounts := crmAccounts()
	leadStore := newMemLeadStore(leads...)
	dispatcher := &recordingDispatcher{}
	resolver, validator, scoper := newTestHierarchy(accounts)

	return &accountFixture{
		accounts:   accounts,
		leads:      leadStore,
		dispatcher: dispatcher,
		service: NewAccountService(AccountDependencies{
			AccountRepo: accounts,
			LeadRepo:    leadStore,
			Resolver:    resolver,
			Validator:   validator,
			Scoper:      scoper,
			Dispatcher:  dispatcher,
			BcryptCost:  4,
		}),
	}
}

func TestCreateAccountHappyPath(t *testing.T) {
	fx := newAccountFixture()
	actor := accountByID(fx.accounts, "tl")

	account, err := fx.service.Create(context.Background(), actor, CreateAccountInput{
		Name:        "Nora",
		Email:       "Nora@CRM.Test",
		Password:    "opensesame",
		Role:        domain.RoleUser,
		ReportingTo: strPtr("tl"),
	})
	require.NoError(t, err)
	assert.Equal(t, "nora@crm.test", account.Email)
	assert.True(t, account.IsActive)
	assert.NotEqual(t, "opensesame", account.PasswordHash)
	require.NotNil(t, account.CreatedBy)
	assert.Equal(t, "tl", *account.CreatedBy)
	assert.Contains(t, fx.dispatcher.typesSeen(), events.EventAccountCreated)
}

func TestCreateAccountRoleCapability(t *testing.T) {
	fx := newAccountFixture()
	ctx := context.Background()

	// A team leader may only create users.
	_, err := fx.service.Create(ctx, accountByID(fx.accounts, "tl"), CreateAccountInput{
		Name: "Pat", Email: "pat@crm.test", Password: "opensesame",
		Role: domain.RoleTeamLeader, ReportingTo: strPtr("mgr"),
	})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	// Users create nothing.
	_, err = fx.service.Create(ctx, accountByID(fx.accounts, "u1"), CreateAccountInput{
		Name: "Pat", Email: "pat@crm.test", Password: "opensesame",
		Role: domain.RoleUser, ReportingTo: strPtr("tl"),
	})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	// Nobody creates admins.
	_, err = fx.service.Create(ctx, accountByID(fx.accounts, "admin"), CreateAccountInput{
		Name: "Pat", Email: "pat@crm.test", Password: "opensesame",
		Role: domain.RoleAdmin,
	})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))
}

func TestCreateAccountRejectsBadReportingEdge(t *testing.T) {
	fx := newAccountFixture()
	actor := accountByID(fx.accounts, "admin")

	_, err := fx.service.Create(context.Background(), actor, CreateAccountInput{
		Name: "Pat", Email: "pat@crm.test", Password: "opensesame",
		Role: domain.RoleUser, ReportingTo: strPtr("mgr"),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
	assert.Contains(t, err.Error(), "User must report to Team Leader, not Manager")
}

func TestCreateAccountManagerOutsideHierarchy(t *testing.T) {
	fx := newAccountFixture()
	// A second team leader outside tl's subtree.
	require.NoError(t, fx.accounts.Create(context.Background(), &domain.Account{
		ID: "tl2", Name: "Toby", Email: "toby@crm.test",
		Role: domain.RoleTeamLeader, ReportingTo: strPtr("mgr"), IsActive: true,
	}))

	_, err := fx.service.Create(context.Background(), accountByID(fx.accounts, "tl"), CreateAccountInput{
		Name: "Pat", Email: "pat@crm.test", Password: "opensesame",
		Role: domain.RoleUser, ReportingTo: strPtr("tl2"),
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	fx := newAccountFixture()

	_, err := fx.service.Create(context.Background(), accountByID(fx.accounts, "tl"), CreateAccountInput{
		Name: "Uma Again", Email: "UMA@crm.test", Password: "opensesame",
		Role: domain.RoleUser, ReportingTo: strPtr("tl"),
	})
	assert.Equal(t, "CONFLICT", errCode(t, err))
}

func TestGetAccountOutOfScopeReadsNotFound(t *testing.T) {
	fx := newAccountFixture()
	ctx := context.Background()

	_, err := fx.service.Get(ctx, accountByID(fx.accounts, "u1"), "u2")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))

	account, err := fx.service.Get(ctx, accountByID(fx.accounts, "u1"), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", account.ID)

	account, err = fx.service.Get(ctx, accountByID(fx.accounts, "tl"), "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2", account.ID)
}

func TestUpdateAccountRestrictedFieldsAdminOnly(t *testing.T) {
	fx := newAccountFixture()
	ctx := context.Background()
	inactive := false

	_, err := fx.service.Update(ctx, accountByID(fx.accounts, "tl"), "u1", UpdateAccountInput{
		IsActive: &inactive,
	})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	account, err := fx.service.Update(ctx, accountByID(fx.accounts, "admin"), "u1", UpdateAccountInput{
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, account.IsActive)
}

func TestUpdateAccountNameByManager(t *testing.T) {
	fx := newAccountFixture()

	account, err := fx.service.Update(context.Background(), accountByID(fx.accounts, "tl"), "u1", UpdateAccountInput{
		Name: strPtr("Uma Larson"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Uma Larson", account.Name)
}

func TestUpdateAccountDuplicateEmail(t *testing.T) {
	fx := newAccountFixture()
	actor := accountByID(fx.accounts, "tl")
	ctx := context.Background()

	_, err := fx.service.Update(ctx, actor, "u1", UpdateAccountInput{
		Email: strPtr("UGO@crm.test"),
	})
	assert.Equal(t, "CONFLICT", errCode(t, err))

	// Re-submitting the account's own email is not a conflict.
	account, err := fx.service.Update(ctx, actor, "u1", UpdateAccountInput{
		Email: strPtr("Uma@CRM.Test"),
	})
	require.NoError(t, err)
	assert.Equal(t, "uma@crm.test", account.Email)
}

func TestUpdateAccountRevalidatesReportingEdge(t *testing.T) {
	fx := newAccountFixture()
	actor := accountByID(fx.accounts, "admin")

	_, err := fx.service.Update(context.Background(), actor, "u1", UpdateAccountInput{
		ReportingTo:    strPtr("mgr"),
		ReportingToSet: true,
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
	assert.Contains(t, err.Error(), "User must report to Team Leader, not Manager")
}

func TestSoftDeleteAccountAdminOnly(t *testing.T) {
	fx := newAccountFixture()
	ctx := context.Background()

	err := fx.service.SoftDelete(ctx, accountByID(fx.accounts, "mgr"), "u1")
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	require.NoError(t, fx.service.SoftDelete(ctx, accountByID(fx.accounts, "admin"), "u1"))

	_, err = fx.service.Get(ctx, accountByID(fx.accounts, "admin"), "u1")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))
}

func TestListAccountsScopedWithLeadCounts(t *testing.T) {
	fx := newAccountFixture(
		domain.Lead{ID: "l1", Name: "Acme", Phone: "111", Status: domain.LeadStatusNew, AssignedUser: "u1", CreatedBy: "u1"},
		domain.Lead{ID: "l2", Name: "Birch", Phone: "222", Status: domain.LeadStatusNew, AssignedUser: "u1", CreatedBy: "u1"},
	)
	ctx := context.Background()

	entries, err := fx.service.List(ctx, accountByID(fx.accounts, "tl"))
	require.NoError(t, err)
	require.Len(t, entries, 3, "self plus both reports")
	counts := map[string]int64{}
	for _, entry := range entries {
		counts[entry.Account.ID] = entry.LeadCount
	}
	assert.Equal(t, int64(2), counts["u1"])
	assert.Equal(t, int64(0), counts["u2"])

	entries, err = fx.service.List(ctx, accountByID(fx.accounts, "admin"))
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	entries, err = fx.service.List(ctx, accountByID(fx.accounts, "u1"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "u1", entries[0].Account.ID)
}

func TestReportingOptions(t *testing.T) {
	fx := newAccountFixture()

	options, err := fx.service.ReportingOptions(context.Background(), domain.RoleUser, nil)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "tl", options[0].ID)

	_, err = fx.service.ReportingOptions(context.Background(), domain.Role("bogus"), nil)
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}
