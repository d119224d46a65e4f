// Package artifact owns a project's live artifact and its append-only
// version history.
package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/daveai/backend/internal/models"
)

// ErrVersionNotFound is returned by Revert when no snapshot carries the
// requested version number.
var ErrVersionNotFound = errors.New("version not found")

// ProjectRepo is the minimal project repository interface for the store.
type ProjectRepo interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error)
	UpdateArtifactTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, code, htmlPreview string, versionNumber int, status string) error
}

// VersionRepo is the minimal snapshot repository interface for the store.
type VersionRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, v *models.CodeVersion) error
	GetByProjectAndNumberTx(ctx context.Context, tx pgx.Tx, projectID uuid.UUID, versionNumber int) (*models.CodeVersion, error)
	ListByProjectID(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.CodeVersion, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store serializes all artifact mutations per project through the project
// row lock: two concurrent commits can never read the same version number.
type Store struct {
	DB       TxBeginner
	Projects ProjectRepo
	Versions VersionRepo
}

func NewStore(db TxBeginner, projects ProjectRepo, versions VersionRepo) *Store {
	return &Store{DB: db, Projects: projects, Versions: versions}
}

// CommitTx replaces the project's artifact with (newCode, newPreview),
// snapshotting the previous state under its old version number first. The
// caller must hold the project's row lock in tx. The very first artifact
// has nothing to preserve, so no snapshot is created for it.
func (s *Store) CommitTx(ctx context.Context, tx pgx.Tx, project *models.Project, newCode, newPreview, triggeringRequest, description string) (*models.CodeVersion, error) {
	var snapshot *models.CodeVersion
	if project.HasArtifact() {
		snapshot = &models.CodeVersion{
			ID:                uuid.New(),
			ProjectID:         project.ID,
			Code:              project.Code,
			HTMLPreview:       project.HTMLPreview,
			VersionNumber:     project.VersionNumber,
			Description:       description,
			TriggeringRequest: triggeringRequest,
		}
		if err := s.Versions.CreateTx(ctx, tx, snapshot); err != nil {
			return nil, fmt.Errorf("snapshot version %d: %w", project.VersionNumber, err)
		}
	}

	next := project.VersionNumber + 1
	if next < 1 {
		next = 1
	}
	if err := s.Projects.UpdateArtifactTx(ctx, tx, project.ID, newCode, newPreview, next, models.ProjectStatusReady); err != nil {
		return nil, err
	}
	project.Code = newCode
	project.HTMLPreview = newPreview
	project.VersionNumber = next
	project.Status = models.ProjectStatusReady
	return snapshot, nil
}

// Commit is the single-call form of CommitTx: it opens the transaction,
// locks the project row and commits.
func (s *Store) Commit(ctx context.Context, projectID uuid.UUID, newCode, newPreview, triggeringRequest, description string) (*models.Project, *models.CodeVersion, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	project, err := s.Projects.GetByIDForUpdate(ctx, tx, projectID)
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := s.CommitTx(ctx, tx, project, newCode, newPreview, triggeringRequest, description)
	if err != nil {
		return nil, nil, err
	}
	return project, snapshot, tx.Commit(ctx)
}

// Revert restores the artifact stored under targetVersion. History stays
// append-only: the restore is a forward commit (the live state is
// snapshotted, the version number keeps climbing), so the fact that a
// revert happened survives later commits.
func (s *Store) Revert(ctx context.Context, projectID uuid.UUID, targetVersion int) (*models.Project, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	project, err := s.Projects.GetByIDForUpdate(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	target, err := s.Versions.GetByProjectAndNumberTx(ctx, tx, projectID, targetVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}

	description := fmt.Sprintf("autosave before restoring version %d", targetVersion)
	if _, err := s.CommitTx(ctx, tx, project, target.Code, target.HTMLPreview, "", description); err != nil {
		return nil, err
	}
	return project, tx.Commit(ctx)
}

// History returns the project's snapshots, newest first.
func (s *Store) History(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.CodeVersion, error) {
	return s.Versions.ListByProjectID(ctx, projectID, limit)
}
