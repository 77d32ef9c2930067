package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-crm/internal/domain"
)

// AccountRepository handles persistence for accounts. The hierarchy
// resolver consumes it as its directory of reporting edges.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
	ListDirectReports(ctx context.Context, managerID string) ([]domain.Account, error)
}

// AccountFilter defines query params for account listing. Results are
// always sorted by name for deterministic presentation.
type AccountFilter struct {
	Role           *domain.Role
	IsActive       *bool
	IncludeDeleted bool
	IDs            []string
	ExcludeID      *string
}

const accountColumns = `id, name, email, password_hash, role, reporting_to, is_active, is_deleted, created_by, updated_by, created_at, updated_at`

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (name, email, password_hash, role, reporting_to, is_active, is_deleted, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.ReportingTo,
		account.IsActive,
		account.IsDeleted,
		account.CreatedBy,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts
        SET name=$1, email=$2, password_hash=$3, role=$4, reporting_to=$5, is_active=$6, is_deleted=$7, updated_by=$8, updated_at=NOW()
        WHERE id=$9`

	cmd, err := r.pool.Exec(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.ReportingTo,
		account.IsActive,
		account.IsDeleted,
		account.UpdatedBy,
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email=$1 AND is_deleted=FALSE`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	args := []any{}
	clauses := []string{}

	if !filter.IncludeDeleted {
		clauses = append(clauses, "is_deleted=FALSE")
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active=$%d", len(args)))
	}
	if filter.IDs != nil {
		args = append(args, filter.IDs)
		clauses = append(clauses, fmt.Sprintf("id=ANY($%d::uuid[])", len(args)))
	}
	if filter.ExcludeID != nil {
		args = append(args, *filter.ExcludeID)
		clauses = append(clauses, fmt.Sprintf("id<>$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *accountRepository) ListDirectReports(ctx context.Context, managerID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE reporting_to=$1 AND is_deleted=FALSE ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *accountRepository) scanOne(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.ReportingTo,
		&account.IsActive,
		&account.IsDeleted,
		&account.CreatedBy,
		&account.UpdatedBy,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) scanMany(rows pgx.Rows) ([]domain.Account, error) {
	var result []domain.Account
	for rows.Next() {
		account, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}
	return result, rows.Err()
}
