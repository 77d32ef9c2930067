package hierarchy

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/observability"
	"github.com/spec-kit/lead-crm/internal/repository"
)

// Resolver derives, for an actor account, the set of accounts they
// control. It re-reads the reporting graph from the store on every
// call; results are never cached across requests.
type Resolver struct {
	accounts repository.AccountRepository
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewResolver constructs a resolver over the account directory.
func NewResolver(accounts repository.AccountRepository, logger *zap.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{accounts: accounts, logger: logger, metrics: metrics}
}

// SubordinateIDs walks the reporting tree below actorID breadth-first
// and returns every transitive report's id. The walk keeps an explicit
// seen-set so a corrupted cyclic graph degrades to a finite result
// instead of non-termination; a detected cycle is logged and counted
// but does not fail the request.
func (r *Resolver) SubordinateIDs(ctx context.Context, actorID string) ([]string, error) {
	seen := map[string]struct{}{actorID: {}}
	subordinates := []string{}
	frontier := []string{actorID}
	anomaly := false

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		reports, err := r.accounts.ListDirectReports(ctx, current)
		if err != nil {
			return nil, err
		}
		for _, report := range reports {
			if _, visited := seen[report.ID]; visited {
				anomaly = true
				continue
			}
			seen[report.ID] = struct{}{}
			subordinates = append(subordinates, report.ID)
			frontier = append(frontier, report.ID)
		}
	}

	if anomaly {
		r.logger.Warn("cycle detected in reporting graph",
			zap.String("actor_id", actorID))
		r.metrics.RecordHierarchyAnomaly()
	}
	return subordinates, nil
}

// ManageableAccounts returns the non-deleted accounts the actor
// controls, sorted by name. Admins see every non-deleted account.
func (r *Resolver) ManageableAccounts(ctx context.Context, actorID string) ([]domain.Account, error) {
	actor, err := r.lookupActor(ctx, actorID)
	if err != nil || actor == nil {
		return []domain.Account{}, err
	}

	if actor.Role == domain.RoleAdmin {
		return r.accounts.List(ctx, repository.AccountFilter{})
	}

	subordinateIDs, err := r.SubordinateIDs(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if len(subordinateIDs) == 0 {
		return []domain.Account{}, nil
	}
	return r.accounts.List(ctx, repository.AccountFilter{IDs: subordinateIDs})
}

// AssignableAccountIDs returns the ids an actor may set as a lead's
// owner, which doubles as the lead-visibility set. The actor's own id
// is always a member when the actor is active; this self-inclusive
// convention is applied uniformly, so a leaf user's set is exactly
// their own id.
func (r *Resolver) AssignableAccountIDs(ctx context.Context, actorID string) ([]string, error) {
	actor, err := r.lookupActor(ctx, actorID)
	if err != nil || actor == nil {
		return []string{}, err
	}

	if actor.Role == domain.RoleAdmin {
		active := true
		accounts, err := r.accounts.List(ctx, repository.AccountFilter{IsActive: &active})
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(accounts))
		for _, account := range accounts {
			ids = append(ids, account.ID)
		}
		return ids, nil
	}

	ids := []string{}
	if actor.IsActive {
		ids = append(ids, actor.ID)
	}
	manageable, err := r.ManageableAccounts(ctx, actorID)
	if err != nil {
		return nil, err
	}
	for _, account := range manageable {
		if account.IsActive {
			ids = append(ids, account.ID)
		}
	}
	return ids, nil
}

// CanManageAccount reports whether the actor controls the target.
// An account never manages itself.
func (r *Resolver) CanManageAccount(ctx context.Context, actorID, targetID string) (bool, error) {
	if actorID == targetID {
		return false, nil
	}
	actor, err := r.lookupActor(ctx, actorID)
	if err != nil || actor == nil {
		return false, err
	}
	if actor.Role == domain.RoleAdmin {
		return true, nil
	}

	subordinateIDs, err := r.SubordinateIDs(ctx, actorID)
	if err != nil {
		return false, err
	}
	for _, id := range subordinateIDs {
		if id == targetID {
			return true, nil
		}
	}
	return false, nil
}

// CanAssignToUser reports whether the actor may set target as a lead's
// owner. Admins may assign to any active, non-deleted account.
func (r *Resolver) CanAssignToUser(ctx context.Context, actorID, targetID string) (bool, error) {
	actor, err := r.lookupActor(ctx, actorID)
	if err != nil || actor == nil {
		return false, err
	}

	if actor.Role == domain.RoleAdmin {
		target, err := r.lookupActor(ctx, targetID)
		if err != nil || target == nil {
			return false, err
		}
		return target.IsActive, nil
	}

	assignableIDs, err := r.AssignableAccountIDs(ctx, actorID)
	if err != nil {
		return false, err
	}
	for _, id := range assignableIDs {
		if id == targetID {
			return true, nil
		}
	}
	return false, nil
}

// ValidReportingToOptions returns the active accounts holding the role
// that accounts of the given role must report to, for manager pickers.
func (r *Resolver) ValidReportingToOptions(ctx context.Context, role domain.Role, excludeID *string) ([]domain.Account, error) {
	managerRole, ok := role.ReportsToRole()
	if !ok {
		return []domain.Account{}, nil
	}
	active := true
	return r.accounts.List(ctx, repository.AccountFilter{
		Role:      &managerRole,
		IsActive:  &active,
		ExcludeID: excludeID,
	})
}

// lookupActor resolves an account id, treating missing and soft-deleted
// accounts as absent (dangling weak references resolve to nothing).
func (r *Resolver) lookupActor(ctx context.Context, id string) (*domain.Account, error) {
	account, err := r.accounts.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if account.IsDeleted {
		return nil, nil
	}
	return account, nil
}
