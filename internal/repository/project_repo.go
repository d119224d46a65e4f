package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daveai/backend/internal/models"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (r *ProjectRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, owner_id, name, description, code, html_preview, version_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, p.ID, p.OwnerID, p.Name, p.Description, p.Code, p.HTMLPreview, p.VersionNumber, p.Status).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, description, code, html_preview, published_url, version_number, status, created_at, updated_at
		FROM projects WHERE id = $1
	`, id))
}

// GetByIDForUpdate locks the project row so commits and reverts against the
// same project are serialized. Call within a transaction.
func (r *ProjectRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error) {
	return scanProject(tx.QueryRow(ctx, `
		SELECT id, owner_id, name, description, code, html_preview, published_url, version_number, status, created_at, updated_at
		FROM projects WHERE id = $1 FOR UPDATE
	`, id))
}

func (r *ProjectRepo) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, name, description, code, html_preview, published_url, version_number, status, created_at, updated_at
		FROM projects WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *ProjectRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE projects SET name = $2, updated_at = now() WHERE id = $1
	`, id, name)
	return err
}

// UpdateArtifactTx replaces the live artifact (code, preview, version,
// status) as one statement. Call after GetByIDForUpdate in the same tx.
func (r *ProjectRepo) UpdateArtifactTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, code, htmlPreview string, versionNumber int, status string) error {
	_, err := tx.Exec(ctx, `
		UPDATE projects SET code = $2, html_preview = $3, version_number = $4, status = $5, updated_at = now()
		WHERE id = $1
	`, id, code, htmlPreview, versionNumber, status)
	return err
}

func (r *ProjectRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error {
	_, err := tx.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	return err
}

func (r *ProjectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE projects SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	return err
}

// SetPublished stores the published artifact URL and flips the status.
func (r *ProjectRepo) SetPublished(ctx context.Context, id uuid.UUID, publishedURL string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE projects SET published_url = $2, status = $3, updated_at = now() WHERE id = $1
	`, id, publishedURL, models.ProjectStatusPublished)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var publishedURL *string
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Code, &p.HTMLPreview, &publishedURL,
		&p.VersionNumber, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if publishedURL != nil {
		p.PublishedURL = *publishedURL
	}
	return &p, nil
}
