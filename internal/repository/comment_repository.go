package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/lead-crm/internal/domain"
)

// CommentRepository persists the append-only comment collection of a lead.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.LeadComment) error
	ListByLead(ctx context.Context, leadID string) ([]domain.LeadComment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates the repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.LeadComment) error {
	const query = `
        INSERT INTO lead_comments (lead_id, body, author_id, author_name, author_role)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		comment.LeadID,
		comment.Text,
		comment.AuthorID,
		comment.AuthorName,
		comment.AuthorRole,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByLead(ctx context.Context, leadID string) ([]domain.LeadComment, error) {
	const query = `
        SELECT id, lead_id, body, author_id, author_name, author_role, created_at
        FROM lead_comments WHERE lead_id=$1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.LeadComment{}
	for rows.Next() {
		var comment domain.LeadComment
		if err := rows.Scan(
			&comment.ID,
			&comment.LeadID,
			&comment.Text,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.AuthorRole,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
