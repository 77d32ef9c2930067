package hierarchy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/lead-crm/internal/domain"
	"github.com/spec-kit/lead-crm/internal/repository"
)

// ValidationResult carries a pass/fail decision and, on failure, a
// human-readable reason safe to return to the caller verbatim.
type ValidationResult struct {
	Valid  bool
	Reason string
}

func rejected(reason string) ValidationResult {
	return ValidationResult{Valid: false, Reason: reason}
}

// Validator accepts or rejects a proposed (role, reportingTo) edge
// before it is persisted to an account. Business-rule violations are
// carried in the result, never as an error; the error return is
// reserved for store failures.
type Validator struct {
	accounts repository.AccountRepository
	resolver *Resolver
}

// NewValidator constructs a validator.
func NewValidator(accounts repository.AccountRepository, resolver *Resolver) *Validator {
	return &Validator{accounts: accounts, resolver: resolver}
}

// ValidateHierarchy checks a proposed reporting edge. subjectID is the
// account being edited, or nil for a creation. Rules short-circuit in
// order: missing manager, unknown manager, wrong manager role,
// self-report, cycle.
func (v *Validator) ValidateHierarchy(ctx context.Context, role domain.Role, reportingToID, subjectID *string) (ValidationResult, error) {
	if reportingToID == nil || *reportingToID == "" {
		if role != domain.RoleAdmin {
			return rejected("account must have a manager"), nil
		}
		return ValidationResult{Valid: true}, nil
	}

	manager, err := v.accounts.GetByID(ctx, *reportingToID)
	if errors.Is(err, pgx.ErrNoRows) {
		return rejected("invalid manager"), nil
	}
	if err != nil {
		return ValidationResult{}, err
	}
	if manager.IsDeleted {
		return rejected("invalid manager"), nil
	}

	if expected, ok := role.ReportsToRole(); ok && manager.Role != expected {
		return rejected(fmt.Sprintf("%s must report to %s, not %s",
			role.DisplayName(), expected.DisplayName(), manager.Role.DisplayName())), nil
	}

	if subjectID != nil && *subjectID == *reportingToID {
		return rejected("account cannot report to itself"), nil
	}

	if subjectID != nil {
		subordinateIDs, err := v.resolver.SubordinateIDs(ctx, *subjectID)
		if err != nil {
			return ValidationResult{}, err
		}
		for _, id := range subordinateIDs {
			if id == *reportingToID {
				return rejected("cannot create circular reporting structure"), nil
			}
		}
	}

	return ValidationResult{Valid: true}, nil
}
