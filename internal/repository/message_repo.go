package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daveai/backend/internal/models"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) CreateTx(ctx context.Context, tx pgx.Tx, m *models.Message) error {
	return tx.QueryRow(ctx, `
		INSERT INTO messages (id, project_id, role, content, credits_used)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, m.ID, m.ProjectID, m.Role, m.Content, m.CreditsUsed).Scan(&m.CreatedAt)
}

// ListByProjectID returns the transcript in chronological order.
func (r *MessageRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, role, content, credits_used, created_at
		FROM messages WHERE project_id = $1 ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &m.CreditsUsed, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
