package hierarchy

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/observability"
	"github.com/spec-kit/lead-crm/internal/repository"
)

// memAccountStore is an in-memory AccountRepository for exercising the
// graph walks without a database.
type memAccountStore struct {
	accounts map[string]domain.Account
}

func newMemAccountStore(accounts ...domain.Account) *memAccountStore {
	store := &memAccountStore{accounts: make(map[string]domain.Account, len(accounts))}
	for _, account := range accounts {
		store.accounts[account.ID] = account
	}
	return store
}

func (s *memAccountStore) Create(ctx context.Context, account *domain.Account) error {
	s.accounts[account.ID] = *account
	return nil
}

func (s *memAccountStore) Update(ctx context.Context, account *domain.Account) error {
	if _, ok := s.accounts[account.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.accounts[account.ID] = *account
	return nil
}

func (s *memAccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &account, nil
}

func (s *memAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	for _, account := range s.accounts {
		if account.Email == email && !account.IsDeleted {
			copied := account
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memAccountStore) List(ctx context.Context, filter repository.AccountFilter) ([]domain.Account, error) {
	var wanted map[string]struct{}
	if filter.IDs != nil {
		wanted = make(map[string]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			wanted[id] = struct{}{}
		}
	}

	result := []domain.Account{}
	for _, account := range s.accounts {
		if account.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		if filter.Role != nil && account.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && account.IsActive != *filter.IsActive {
			continue
		}
		if filter.ExcludeID != nil && account.ID == *filter.ExcludeID {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[account.ID]; !ok {
				continue
			}
		}
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *memAccountStore) ListDirectReports(ctx context.Context, managerID string) ([]domain.Account, error) {
	result := []domain.Account{}
	for _, account := range s.accounts {
		if account.IsDeleted || account.ReportingTo == nil {
			continue
		}
		if *account.ReportingTo == managerID {
			result = append(result, account)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func newTestResolver(store *memAccountStore) *Resolver {
	return NewResolver(store, zap.NewNop(), observability.NewMetrics())
}

func strPtr(s string) *string { return &s }

// reportingTree builds the standard four-level fixture: an admin, a
// manager, a team leader under the manager, and two users under the
// team leader.
func reportingTree() *memAccountStore {
	return newMemAccountStore(
		domain.Account{ID: "admin", Name: "Ada", Email: "ada@crm.test", Role: domain.RoleAdmin, IsActive: true},
		domain.Account{ID: "mgr", Name: "Mara", Email: "mara@crm.test", Role: domain.RoleManager, ReportingTo: strPtr("admin"), IsActive: true},
		domain.Account{ID: "tl", Name: "Tia", Email: "tia@crm.test", Role: domain.RoleTeamLeader, ReportingTo: strPtr("mgr"), IsActive: true},
		domain.Account{ID: "u1", Name: "Uma", Email: "uma@crm.test", Role: domain.RoleUser, ReportingTo: strPtr("tl"), IsActive: true},
		domain.Account{ID: "u2", Name: "Ugo", Email: "ugo@crm.test", Role: domain.RoleUser, ReportingTo: strPtr("tl"), IsActive: true},
	)
}
