package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-crm/internal/auth"
	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/events"
	"github.com/spec-kit/lead-crm/internal/hierarchy"
	"github.com/spec-kit/lead-crm/internal/repository"
	apperrors "github.com/spec-kit/lead-crm/pkg/util"
)

// AccountService coordinates account management under hierarchy rules.
type AccountService struct {
	accounts   repository.AccountRepository
	leads      repository.LeadRepository
	resolver   *hierarchy.Resolver
	validator  *hierarchy.Validator
	scoper     *hierarchy.Scoper
	dispatcher events.Dispatcher
	bcryptCost int
}

// AccountDependencies bundles collaborators for the account service.
type AccountDependencies struct {
	AccountRepo repository.AccountRepository
	LeadRepo    repository.LeadRepository
	Resolver    *hierarchy.Resolver
	Validator   *hierarchy.Validator
	Scoper      *hierarchy.Scoper
	Dispatcher  events.Dispatcher
	BcryptCost  int
}

// NewAccountService constructs the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	return &AccountService{
		accounts:   deps.AccountRepo,
		leads:      deps.LeadRepo,
		resolver:   deps.Resolver,
		validator:  deps.Validator,
		scoper:     deps.Scoper,
		dispatcher: deps.Dispatcher,
		bcryptCost: deps.BcryptCost,
	}
}

// AccountWithLeadCount pairs an account with its owned-lead count.
type AccountWithLeadCount struct {
	Account   domain.Account
	LeadCount int64
}

// CreateAccountInput describes account creation payload.
type CreateAccountInput struct {
	Name        string
	Email       string
	Password    string
	Role        domain.Role
	ReportingTo *string
}

// UpdateAccountInput describes account edit payload. ReportingToSet
// distinguishes "clear the manager" from "leave it alone".
type UpdateAccountInput struct {
	Name           *string
	Email          *string
	Role           *domain.Role
	IsActive       *bool
	ReportingTo    *string
	ReportingToSet bool
}

// List returns the accounts visible to the actor: every account for
// admins, otherwise the actor's manageable set plus themselves. Each
// entry carries its owned-lead count.
func (s *AccountService) List(ctx context.Context, actor *domain.Account) ([]AccountWithLeadCount, error) {
	var accounts []domain.Account
	var err error

	if actor.Role == domain.RoleAdmin {
		accounts, err = s.accounts.List(ctx, repository.AccountFilter{})
	} else {
		accounts, err = s.resolver.ManageableAccounts(ctx, actor.ID)
		if err == nil {
			accounts = append([]domain.Account{*actor}, accounts...)
		}
	}
	if err != nil {
		return nil, err
	}

	counts, err := s.leads.CountByAssignee(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]AccountWithLeadCount, 0, len(accounts))
	for _, account := range accounts {
		result = append(result, AccountWithLeadCount{
			Account:   account,
			LeadCount: counts[account.ID],
		})
	}
	return result, nil
}

// Get returns a single account. Out-of-scope targets read as not
// found so their existence is not confirmed.
func (s *AccountService) Get(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error) {
	allowed, err := s.scoper.CanViewAccount(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.NewNotFound("account", nil)
	}

	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", nil)
		}
		return nil, err
	}
	if target.IsDeleted {
		return nil, apperrors.NewNotFound("account", nil)
	}
	return target, nil
}

// Create creates a new account. The actor must be allowed to create
// the requested role and the proposed reporting edge must validate.
// Non-admin creators may only hang the new account below themselves
// or one of their subordinates.
func (s *AccountService) Create(ctx context.Context, actor *domain.Account, input CreateAccountInput) (*domain.Account, error) {
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", nil)
	}
	if !actor.Role.CanCreate(input.Role) {
		return nil, apperrors.NewForbidden("role not allowed to create " + input.Role.DisplayName())
	}

	if actor.Role != domain.RoleAdmin && input.ReportingTo != nil && *input.ReportingTo != actor.ID {
		manages, err := s.resolver.CanManageAccount(ctx, actor.ID, *input.ReportingTo)
		if err != nil {
			return nil, err
		}
		if !manages {
			return nil, apperrors.NewValidationError("manager outside your hierarchy", nil)
		}
	}

	result, err := s.validator.ValidateHierarchy(ctx, input.Role, input.ReportingTo, nil)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, apperrors.NewValidationError(result.Reason, nil)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("account with this email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		ReportingTo:  input.ReportingTo,
		IsActive:     true,
		CreatedBy:    &actor.ID,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventAccountCreated,
		ActorID: actor.ID,
		Payload: events.AccountCreatedPayload{
			AccountID:   account.ID,
			Role:        account.Role,
			ReportingTo: account.ReportingTo,
		},
	})
	return account, nil
}

// Update edits an account. Name and email may be edited by anyone who
// can view the target; role, active flag and reporting edge are
// admin-only capabilities.
func (s *AccountService) Update(ctx context.Context, actor *domain.Account, targetID string, input UpdateAccountInput) (*domain.Account, error) {
	target, err := s.Get(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}

	restricted := input.Role != nil || input.IsActive != nil || input.ReportingToSet
	if restricted && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("only admins may change role, active status or manager")
	}

	newRole := target.Role
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", nil)
		}
		newRole = *input.Role
	}
	newReportingTo := target.ReportingTo
	if input.ReportingToSet {
		newReportingTo = input.ReportingTo
	}

	if newRole != target.Role || input.ReportingToSet {
		result, err := s.validator.ValidateHierarchy(ctx, newRole, newReportingTo, &target.ID)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, apperrors.NewValidationError(result.Reason, nil)
		}
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		target.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != target.Email {
			if existing, err := s.accounts.GetByEmail(ctx, email); err == nil && existing.ID != target.ID {
				return nil, apperrors.NewConflict("account with this email already exists", nil)
			} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
		}
		target.Email = email
	}
	target.Role = newRole
	target.ReportingTo = newReportingTo
	if input.IsActive != nil {
		target.IsActive = *input.IsActive
	}
	target.UpdatedBy = &actor.ID

	if err := s.accounts.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// SoftDelete flags an account as deleted. Admin-only; the middleware
// enforces it at the route and the service re-checks the capability.
func (s *AccountService) SoftDelete(ctx context.Context, actor *domain.Account, targetID string) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only admins may delete accounts")
	}
	target, err := s.Get(ctx, actor, targetID)
	if err != nil {
		return err
	}
	target.IsDeleted = true
	target.UpdatedBy = &actor.ID
	return s.accounts.Update(ctx, target)
}

// ReportingOptions lists the accounts a new or edited account of the
// given role could report to.
func (s *AccountService) ReportingOptions(ctx context.Context, role domain.Role, excludeID *string) ([]domain.Account, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", nil)
	}
	return s.resolver.ValidReportingToOptions(ctx, role, excludeID)
}

// CreatableRoles lists the roles the actor may create.
func (s *AccountService) CreatableRoles(actor *domain.Account) []domain.Role {
	return actor.Role.CreatableRoles()
}

func (s *AccountService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
