package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-crm/internal/domain"
)

// Scope restricts lead queries to a set of owner account ids. It is
// computed per request by the hierarchy layer and pushed into every
// query and mutation as a predicate, never cached.
type Scope struct {
	All        bool
	AccountIDs []string
}

// IsEmpty reports whether the scope can match nothing.
func (s Scope) IsEmpty() bool {
	return !s.All && len(s.AccountIDs) == 0
}

// LeadRepository handles persistence for leads.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	Update(ctx context.Context, lead *domain.Lead) error
	GetInScope(ctx context.Context, id string, scope Scope) (*domain.Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]domain.Lead, error)
	Count(ctx context.Context, filter LeadFilter) (int64, error)
	CountByAssignee(ctx context.Context) (map[string]int64, error)
	StatusCounts(ctx context.Context, scope Scope) (map[domain.LeadStatus]int64, error)
	StatusCountsByAssignee(ctx context.Context, scope Scope) ([]AssigneeStatusCount, error)
}

// LeadFilter defines query params for lead listing.
type LeadFilter struct {
	Scope       Scope
	Status      *domain.LeadStatus
	Search      *string
	RecentFirst bool
	Limit       int
	Offset      int
}

// AssigneeStatusCount is one row of a per-owner pipeline breakdown.
type AssigneeStatusCount struct {
	AccountID string
	Status    domain.LeadStatus
	Count     int64
}

const leadColumns = `id, name, email, phone, address, source, status, assigned_user, created_by, updated_by, is_deleted, created_at, updated_at`

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository instantiates the repository.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

func (r *leadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	const query = `
        INSERT INTO leads (name, email, phone, address, source, status, assigned_user, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Address,
		lead.Source,
		lead.Status,
		lead.AssignedUser,
		lead.CreatedBy,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
}

func (r *leadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	const query = `
        UPDATE leads
        SET name=$1, email=$2, phone=$3, address=$4, source=$5, status=$6, assigned_user=$7, updated_by=$8, is_deleted=$9, updated_at=NOW()
        WHERE id=$10`

	cmd, err := r.pool.Exec(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Address,
		lead.Source,
		lead.Status,
		lead.AssignedUser,
		lead.UpdatedBy,
		lead.IsDeleted,
		lead.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetInScope fetches a non-deleted lead with the ownership predicate
// inline in the same query, so the scope check cannot go stale between
// fetch and decision. Out-of-scope reads as pgx.ErrNoRows.
func (r *leadRepository) GetInScope(ctx context.Context, id string, scope Scope) (*domain.Lead, error) {
	if scope.IsEmpty() {
		return nil, pgx.ErrNoRows
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id=$1 AND is_deleted=FALSE`
	args := []any{id}
	if !scope.All {
		args = append(args, scope.AccountIDs)
		query += fmt.Sprintf(" AND assigned_user=ANY($%d::uuid[])", len(args))
	}
	return r.scanOne(r.pool.QueryRow(ctx, query, args...))
}

func (r *leadRepository) List(ctx context.Context, filter LeadFilter) ([]domain.Lead, error) {
	if filter.Scope.IsEmpty() {
		return []domain.Lead{}, nil
	}
	query := `SELECT ` + leadColumns + ` FROM leads`
	clauses, args := r.buildClauses(filter)
	query += " WHERE " + strings.Join(clauses, " AND ")
	if filter.RecentFirst {
		query += " ORDER BY updated_at DESC"
	} else {
		query += " ORDER BY created_at DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Lead{}
	for rows.Next() {
		lead, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *lead)
	}
	return result, rows.Err()
}

func (r *leadRepository) Count(ctx context.Context, filter LeadFilter) (int64, error) {
	if filter.Scope.IsEmpty() {
		return 0, nil
	}
	clauses, args := r.buildClauses(filter)
	query := `SELECT COUNT(*) FROM leads WHERE ` + strings.Join(clauses, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *leadRepository) CountByAssignee(ctx context.Context) (map[string]int64, error) {
	const query = `
        SELECT assigned_user, COUNT(*)
        FROM leads WHERE is_deleted=FALSE
        GROUP BY assigned_user`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var accountID string
		var count int64
		if err := rows.Scan(&accountID, &count); err != nil {
			return nil, err
		}
		counts[accountID] = count
	}
	return counts, rows.Err()
}

func (r *leadRepository) StatusCounts(ctx context.Context, scope Scope) (map[domain.LeadStatus]int64, error) {
	if scope.IsEmpty() {
		return map[domain.LeadStatus]int64{}, nil
	}
	query := `SELECT status, COUNT(*) FROM leads WHERE is_deleted=FALSE`
	args := []any{}
	if !scope.All {
		args = append(args, scope.AccountIDs)
		query += fmt.Sprintf(" AND assigned_user=ANY($%d::uuid[])", len(args))
	}
	query += " GROUP BY status"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.LeadStatus]int64{}
	for rows.Next() {
		var status domain.LeadStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *leadRepository) StatusCountsByAssignee(ctx context.Context, scope Scope) ([]AssigneeStatusCount, error) {
	if scope.IsEmpty() {
		return []AssigneeStatusCount{}, nil
	}
	query := `SELECT assigned_user, status, COUNT(*) FROM leads WHERE is_deleted=FALSE`
	args := []any{}
	if !scope.All {
		args = append(args, scope.AccountIDs)
		query += fmt.Sprintf(" AND assigned_user=ANY($%d::uuid[])", len(args))
	}
	query += " GROUP BY assigned_user, status"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []AssigneeStatusCount{}
	for rows.Next() {
		var row AssigneeStatusCount
		if err := rows.Scan(&row.AccountID, &row.Status, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *leadRepository) buildClauses(filter LeadFilter) ([]string, []any) {
	clauses := []string{"is_deleted=FALSE"}
	args := []any{}

	if !filter.Scope.All {
		args = append(args, filter.Scope.AccountIDs)
		clauses = append(clauses, fmt.Sprintf("assigned_user=ANY($%d::uuid[])", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.Search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", n, n, n))
	}
	return clauses, args
}

func (r *leadRepository) scanOne(row pgx.Row) (*domain.Lead, error) {
	var lead domain.Lead
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Address,
		&lead.Source,
		&lead.Status,
		&lead.AssignedUser,
		&lead.CreatedBy,
		&lead.UpdatedBy,
		&lead.IsDeleted,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}
