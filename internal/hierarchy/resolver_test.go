package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/lead-crm/internal/domain"
)

func TestSubordinateIDsTransitive(t *testing.T) {
	resolver := newTestResolver(reportingTree())

	ids, err := resolver.SubordinateIDs(context.Background(), "mgr")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tl", "u1", "u2"}, ids)
}

func TestSubordinateIDsExcludesSelf(t *testing.T) {
	resolver := newTestResolver(reportingTree())

	ids, err := resolver.SubordinateIDs(context.Background(), "tl")
	require.NoError(t, err)
	assert.NotContains(t, ids, "tl")
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)
}

func TestSubordinateIDsLeafHasNone(t *testing.T) {
	resolver := newTestResolver(reportingTree())

	ids, err := resolver.SubordinateIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSubordinateIDsTerminatesOnCycle(t *testing.T) {
	// a -> b -> c -> a, corrupted directly in the store.
	store := newMemAccountStore(
		domain.Account{ID: "a", Name: "A", Role: domain.RoleManager, ReportingTo: strPtr("c"), IsActive: true},
		domain.Account{ID: "b", Name: "B", Role: domain.RoleTeamLeader, ReportingTo: strPtr("a"), IsActive: true},
		domain.Account{ID: "c", Name: "C", Role: domain.RoleUser, ReportingTo: strPtr("b"), IsActive: true},
	)
	resolver := newTestResolver(store)

	ids, err := resolver.SubordinateIDs(context.Background(), "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}

func TestManageableAccountsAdminSeesEveryone(t *testing.T) {
	resolver := newTestResolver(reportingTree())

	accounts, err := resolver.ManageableAccounts(context.Background(), "admin")
	require.NoError(t, err)
	assert.Len(t, accounts, 5)
}

func TestManageableAccountsSkipsDeletedActor(t *testing.T) {
	store := reportingTree()
	deleted := store.accounts["mgr"]
	deleted.IsDeleted = true
	store.accounts["mgr"] = deleted
	resolver := newTestResolver(store)

	accounts, err := resolver.ManageableAccounts(context.Background(), "mgr")
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestAssignableAccountIDsIncludesSelf(t *testing.T) {
	resolver := newTestResolver(reportingTree())

	ids, err := resolver.AssignableAccountIDs(context.Background(), "tl")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tl", "u1", "u2"}, ids)
}

func TestAssignableAccountIDsLeafIsSelfOnly(t *testing.T) {
	resolver := newTestResolver(reportingTree())

	ids, err := resolver.AssignableAccountIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
}

func TestAssignableAccountIDsExcludesInactive(t *testing.T) {
	store := reportingTree()
	inactive := store.accounts["u2"]
	inactive.IsActive = false
	store.accounts["u2"] = inactive
	resolver := newTestResolver(store)

	ids, err := resolver.AssignableAccountIDs(context.Background(), "tl")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tl", "u1"}, ids)
}

func TestAssignableAccountIDsAdminGetsAllActive(t *testing.T) {
	store := reportingTree()
	inactive := store.accounts["u2"]
	inactive.IsActive = false
	store.accounts["u2"] = inactive
	resolver := newTestResolver(store)

	ids, err := resolver.AssignableAccountIDs(context.Background(), "admin")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"admin", "mgr", "tl", "u1"}, ids)
}

func TestCanManageAccountNeverSelf(t *testing.T) {
	resolver := newTestResolver(reportingTree())

	for _, id := range []string{"admin", "mgr", "tl", "u1"} {
		ok, err := resolver.CanManageAccount(context.Background(), id, id)
		require.NoError(t, err)
		assert.False(t, ok, "account %s must not manage itself", id)
	}
}

func TestCanManageAccountFollowsTree(t *testing.T) {
	resolver := newTestResolver(reportingTree())
	ctx := context.Background()

	ok, err := resolver.CanManageAccount(ctx, "mgr", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.CanManageAccount(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, ok, "peers must not manage each other")

	ok, err = resolver.CanManageAccount(ctx, "tl", "mgr")
	require.NoError(t, err)
	assert.False(t, ok, "reports must not manage their manager")

	ok, err = resolver.CanManageAccount(ctx, "admin", "u2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanAssignToUser(t *testing.T) {
	resolver := newTestResolver(reportingTree())
	ctx := context.Background()

	ok, err := resolver.CanAssignToUser(ctx, "tl", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.CanAssignToUser(ctx, "u1", "u1")
	require.NoError(t, err)
	assert.True(t, ok, "users may hold their own leads")

	ok, err = resolver.CanAssignToUser(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAssignToUserAdminRequiresActiveTarget(t *testing.T) {
	store := reportingTree()
	inactive := store.accounts["u2"]
	inactive.IsActive = false
	store.accounts["u2"] = inactive
	resolver := newTestResolver(store)
	ctx := context.Background()

	ok, err := resolver.CanAssignToUser(ctx, "admin", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.CanAssignToUser(ctx, "admin", "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = resolver.CanAssignToUser(ctx, "admin", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidReportingToOptions(t *testing.T) {
	resolver := newTestResolver(reportingTree())
	ctx := context.Background()

	options, err := resolver.ValidReportingToOptions(ctx, domain.RoleUser, nil)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "tl", options[0].ID)

	options, err = resolver.ValidReportingToOptions(ctx, domain.RoleAdmin, nil)
	require.NoError(t, err)
	assert.Empty(t, options, "admins have no manager role")
}

func TestLookupDanglingManagerResolvesToNothing(t *testing.T) {
	// u1 points at a manager that was hard-removed from the store.
	store := newMemAccountStore(
		domain.Account{ID: "u1", Name: "Uma", Role: domain.RoleUser, ReportingTo: strPtr("gone"), IsActive: true},
	)
	resolver := newTestResolver(store)

	ids, err := resolver.AssignableAccountIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)
}
