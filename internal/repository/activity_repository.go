package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-crm/internal/domain"
)

// ActivityFeedItem is an activity entry joined with its lead's name.
type ActivityFeedItem struct {
	Entry    domain.ActivityEntry
	LeadName string
}

// ActivityFeedFilter defines query params for the cross-lead activity feed.
// Scope restricts entries to leads owned by the given accounts.
type ActivityFeedFilter struct {
	Scope  Scope
	LeadID *string
	Action *domain.ActivityAction
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// ActivityRepository persists the append-only audit trail of leads.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityEntry) error
	ListByLead(ctx context.Context, leadID string) ([]domain.ActivityEntry, error)
	ListFeed(ctx context.Context, filter ActivityFeedFilter) ([]ActivityFeedItem, error)
	CountFeed(ctx context.Context, filter ActivityFeedFilter) (int64, error)
}

const activityColumns = `e.id, e.lead_id, e.action, e.description, e.performed_by, e.performed_by_name, e.field, e.old_value, e.new_value, e.created_at`

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, entry *domain.ActivityEntry) error {
	const query = `
        INSERT INTO lead_activity (lead_id, action, description, performed_by, performed_by_name, field, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		entry.LeadID,
		entry.Action,
		entry.Description,
		entry.PerformedBy,
		entry.PerformedByName,
		entry.Field,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityRepository) ListByLead(ctx context.Context, leadID string) ([]domain.ActivityEntry, error) {
	query := `SELECT ` + activityColumns + ` FROM lead_activity e WHERE e.lead_id=$1 ORDER BY e.created_at DESC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ActivityEntry{}
	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

func (r *activityRepository) ListFeed(ctx context.Context, filter ActivityFeedFilter) ([]ActivityFeedItem, error) {
	if filter.Scope.IsEmpty() {
		return []ActivityFeedItem{}, nil
	}
	clauses, args := buildFeedClauses(filter)
	query := `
        SELECT ` + activityColumns + `, l.name
        FROM lead_activity e
        JOIN leads l ON l.id = e.lead_id AND l.is_deleted=FALSE
        WHERE ` + strings.Join(clauses, " AND ") + `
        ORDER BY e.created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
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

	result := []ActivityFeedItem{}
	for rows.Next() {
		var item ActivityFeedItem
		if err := rows.Scan(
			&item.Entry.ID,
			&item.Entry.LeadID,
			&item.Entry.Action,
			&item.Entry.Description,
			&item.Entry.PerformedBy,
			&item.Entry.PerformedByName,
			&item.Entry.Field,
			&item.Entry.OldValue,
			&item.Entry.NewValue,
			&item.Entry.CreatedAt,
			&item.LeadName,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *activityRepository) CountFeed(ctx context.Context, filter ActivityFeedFilter) (int64, error) {
	if filter.Scope.IsEmpty() {
		return 0, nil
	}
	clauses, args := buildFeedClauses(filter)
	query := `
        SELECT COUNT(*)
        FROM lead_activity e
        JOIN leads l ON l.id = e.lead_id AND l.is_deleted=FALSE
        WHERE ` + strings.Join(clauses, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildFeedClauses(filter ActivityFeedFilter) ([]string, []any) {
	clauses := []string{}
	args := []any{}

	if !filter.Scope.All {
		args = append(args, filter.Scope.AccountIDs)
		clauses = append(clauses, fmt.Sprintf("l.assigned_user=ANY($%d::uuid[])", len(args)))
	}
	if filter.LeadID != nil {
		args = append(args, *filter.LeadID)
		clauses = append(clauses, fmt.Sprintf("e.lead_id=$%d", len(args)))
	}
	if filter.Action != nil {
		args = append(args, *filter.Action)
		clauses = append(clauses, fmt.Sprintf("e.action=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("e.created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("e.created_at <= $%d", len(args)))
	}
	if len(clauses) == 0 {
		clauses = append(clauses, "TRUE")
	}
	return clauses, args
}

func scanActivity(row pgx.Row) (*domain.ActivityEntry, error) {
	var entry domain.ActivityEntry
	if err := row.Scan(
		&entry.ID,
		&entry.LeadID,
		&entry.Action,
		&entry.Description,
		&entry.PerformedBy,
		&entry.PerformedByName,
		&entry.Field,
		&entry.OldValue,
		&entry.NewValue,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}
