package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daveai/backend/internal/models"
)

type VersionRepo struct {
	pool *pgxpool.Pool
}

func NewVersionRepo(pool *pgxpool.Pool) *VersionRepo {
	return &VersionRepo{pool: pool}
}

// CreateTx inserts a snapshot inside the given transaction. Snapshots are
// immutable after insert.
func (r *VersionRepo) CreateTx(ctx context.Context, tx pgx.Tx, v *models.CodeVersion) error {
	return tx.QueryRow(ctx, `
		INSERT INTO code_versions (id, project_id, code, html_preview, version_number, description, triggering_request)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, v.ID, v.ProjectID, v.Code, v.HTMLPreview, v.VersionNumber, v.Description, v.TriggeringRequest).Scan(&v.CreatedAt)
}

// GetByProjectAndNumberTx fetches the snapshot tagged with versionNumber.
// Returns pgx.ErrNoRows when no such snapshot exists.
func (r *VersionRepo) GetByProjectAndNumberTx(ctx context.Context, tx pgx.Tx, projectID uuid.UUID, versionNumber int) (*models.CodeVersion, error) {
	var v models.CodeVersion
	err := tx.QueryRow(ctx, `
		SELECT id, project_id, code, html_preview, version_number, description, triggering_request, created_at
		FROM code_versions WHERE project_id = $1 AND version_number = $2
		ORDER BY created_at DESC LIMIT 1
	`, projectID, versionNumber).Scan(&v.ID, &v.ProjectID, &v.Code, &v.HTMLPreview, &v.VersionNumber, &v.Description, &v.TriggeringRequest, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VersionRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.CodeVersion, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, code, html_preview, version_number, description, triggering_request, created_at
		FROM code_versions WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2
	`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CodeVersion
	for rows.Next() {
		var v models.CodeVersion
		if err := rows.Scan(&v.ID, &v.ProjectID, &v.Code, &v.HTMLPreview, &v.VersionNumber, &v.Description, &v.TriggeringRequest, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}
