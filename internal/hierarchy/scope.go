package hierarchy

import (
	"context"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/repository"
)

// Scoper translates the current actor into query predicates over leads
// and accounts. When a caller's requested filter disagrees with their
// computed scope the result narrows toward empty, never outward.
type Scoper struct {
	resolver *Resolver
}

// NewScoper constructs a scoper over the resolver.
func NewScoper(resolver *Resolver) *Scoper {
	return &Scoper{resolver: resolver}
}

// LeadScope computes the lead-visibility predicate for the actor.
// Admins are unrestricted; everyone else sees leads owned by their
// assignable set, which always contains themselves.
func (s *Scoper) LeadScope(ctx context.Context, actor *domain.Account) (repository.Scope, error) {
	if actor.Role == domain.RoleAdmin {
		return repository.Scope{All: true}, nil
	}
	ids, err := s.resolver.AssignableAccountIDs(ctx, actor.ID)
	if err != nil {
		return repository.Scope{}, err
	}
	return repository.Scope{AccountIDs: ids}, nil
}

// Narrow applies an explicit assigned-user filter to a computed scope.
// Unrestricted scopes accept the filter verbatim; restricted scopes
// intersect with it, dropping out-of-scope ids. A non-empty request
// that intersects to nothing yields the empty scope, so list queries
// return nothing rather than leak.
func Narrow(scope repository.Scope, requestedIDs []string) repository.Scope {
	requested := make([]string, 0, len(requestedIDs))
	for _, id := range requestedIDs {
		if id != "" {
			requested = append(requested, id)
		}
	}
	if len(requested) == 0 {
		return scope
	}
	if scope.All {
		return repository.Scope{AccountIDs: requested}
	}

	allowed := make(map[string]struct{}, len(scope.AccountIDs))
	for _, id := range scope.AccountIDs {
		allowed[id] = struct{}{}
	}
	kept := []string{}
	for _, id := range requested {
		if _, ok := allowed[id]; ok {
			kept = append(kept, id)
		}
	}
	return repository.Scope{AccountIDs: kept}
}

// CanViewAccount reports whether the actor may read the target account:
// themselves, any account for admins, or a subordinate.
func (s *Scoper) CanViewAccount(ctx context.Context, actor *domain.Account, targetID string) (bool, error) {
	if actor.ID == targetID {
		return true, nil
	}
	if actor.Role == domain.RoleAdmin {
		return true, nil
	}
	return s.resolver.CanManageAccount(ctx, actor.ID, targetID)
}
