package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-crm/internal/domain"
)

// FollowUpReminder joins a follow-up with the lead and owner it belongs
// to, for reminder and calendar views.
type FollowUpReminder struct {
	FollowUp         domain.FollowUp
	LeadName         string
	AssignedUser     string
	AssignedUserName string
}

// FollowUpRepository persists the append-only follow-up collection of a lead.
type FollowUpRepository interface {
	Create(ctx context.Context, followUp *domain.FollowUp) error
	ListByLead(ctx context.Context, leadID string) ([]domain.FollowUp, error)
	ListDueBetween(ctx context.Context, scope Scope, from, to time.Time) ([]FollowUpReminder, error)
	ListOverdue(ctx context.Context, scope Scope, before time.Time) ([]FollowUpReminder, error)
	ListUnsentDueBefore(ctx context.Context, before time.Time, limit int) ([]FollowUpReminder, error)
	MarkReminderSent(ctx context.Context, id string) error
}

const followUpColumns = `f.id, f.lead_id, f.due_date, f.due_time, f.comment, f.created_by, f.is_recurring, f.recurring_interval, f.recurring_end_date, f.reminder_sent, f.created_at`

type followUpRepository struct {
	pool *pgxpool.Pool
}

// NewFollowUpRepository instantiates the repository.
func NewFollowUpRepository(pool *pgxpool.Pool) FollowUpRepository {
	return &followUpRepository{pool: pool}
}

func (r *followUpRepository) Create(ctx context.Context, followUp *domain.FollowUp) error {
	const query = `
        INSERT INTO lead_followups (lead_id, due_date, due_time, comment, created_by, is_recurring, recurring_interval, recurring_end_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		followUp.LeadID,
		followUp.Date,
		followUp.Time,
		followUp.Comment,
		followUp.CreatedBy,
		followUp.IsRecurring,
		followUp.RecurringInterval,
		followUp.RecurringEndDate,
	).Scan(&followUp.ID, &followUp.CreatedAt)
}

func (r *followUpRepository) ListByLead(ctx context.Context, leadID string) ([]domain.FollowUp, error) {
	query := `SELECT ` + followUpColumns + ` FROM lead_followups f WHERE f.lead_id=$1 ORDER BY f.due_date ASC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.FollowUp{}
	for rows.Next() {
		followUp, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *followUp)
	}
	return result, rows.Err()
}

// ListDueBetween returns follow-ups due in [from, to). The exclusive
// upper bound keeps a follow-up due exactly at a day or month boundary
// in a single bucket.
func (r *followUpRepository) ListDueBetween(ctx context.Context, scope Scope, from, to time.Time) ([]FollowUpReminder, error) {
	return r.listJoined(ctx, scope, "f.due_date >= $%d AND f.due_date < $%d", from, to)
}

func (r *followUpRepository) ListOverdue(ctx context.Context, scope Scope, before time.Time) ([]FollowUpReminder, error) {
	return r.listJoined(ctx, scope, "f.due_date < $%d", before)
}

func (r *followUpRepository) ListUnsentDueBefore(ctx context.Context, before time.Time, limit int) ([]FollowUpReminder, error) {
	query := `
        SELECT ` + followUpColumns + `, l.name, l.assigned_user, a.name
        FROM lead_followups f
        JOIN leads l ON l.id = f.lead_id AND l.is_deleted=FALSE
        JOIN accounts a ON a.id = l.assigned_user
        WHERE f.reminder_sent=FALSE AND f.due_date <= $1
        ORDER BY f.due_date ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.pool.Query(ctx, query, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *followUpRepository) MarkReminderSent(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE lead_followups SET reminder_sent=TRUE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *followUpRepository) listJoined(ctx context.Context, scope Scope, dueClause string, dueArgs ...any) ([]FollowUpReminder, error) {
	if scope.IsEmpty() {
		return []FollowUpReminder{}, nil
	}
	query := `
        SELECT ` + followUpColumns + `, l.name, l.assigned_user, a.name
        FROM lead_followups f
        JOIN leads l ON l.id = f.lead_id AND l.is_deleted=FALSE
        JOIN accounts a ON a.id = l.assigned_user`
	args := []any{}
	clause := " WHERE "
	if !scope.All {
		args = append(args, scope.AccountIDs)
		query += fmt.Sprintf(" WHERE l.assigned_user=ANY($%d::uuid[])", len(args))
		clause = " AND "
	}

	placeholders := make([]any, 0, len(dueArgs))
	for _, arg := range dueArgs {
		args = append(args, arg)
		placeholders = append(placeholders, len(args))
	}
	query += clause + fmt.Sprintf(dueClause, placeholders...)
	query += " ORDER BY f.due_date ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminders(rows)
}

func scanFollowUp(row pgx.Row) (*domain.FollowUp, error) {
	var followUp domain.FollowUp
	if err := row.Scan(
		&followUp.ID,
		&followUp.LeadID,
		&followUp.Date,
		&followUp.Time,
		&followUp.Comment,
		&followUp.CreatedBy,
		&followUp.IsRecurring,
		&followUp.RecurringInterval,
		&followUp.RecurringEndDate,
		&followUp.ReminderSent,
		&followUp.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &followUp, nil
}

func scanReminders(rows pgx.Rows) ([]FollowUpReminder, error) {
	result := []FollowUpReminder{}
	for rows.Next() {
		var item FollowUpReminder
		if err := rows.Scan(
			&item.FollowUp.ID,
			&item.FollowUp.LeadID,
			&item.FollowUp.Date,
			&item.FollowUp.Time,
			&item.FollowUp.Comment,
			&item.FollowUp.CreatedBy,
			&item.FollowUp.IsRecurring,
			&item.FollowUp.RecurringInterval,
			&item.FollowUp.RecurringEndDate,
			&item.FollowUp.ReminderSent,
			&item.FollowUp.CreatedAt,
			&item.LeadName,
			&item.AssignedUser,
			&item.AssignedUserName,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
