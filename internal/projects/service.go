package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/daveai/backend/internal/generation"
	"github.com/daveai/backend/internal/models"
	"github.com/daveai/backend/internal/publish"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrNotOwner        = errors.New("project belongs to another account")
	ErrNothingToRevert = errors.New("project has no saved versions")
)

// Repo is the project persistence the service needs.
type Repo interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Project, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status string) error
}

// ArtifactStore is the versioned artifact API the service delegates to.
type ArtifactStore interface {
	Revert(ctx context.Context, projectID uuid.UUID, targetVersion int) (*models.Project, error)
	History(ctx context.Context, projectID uuid.UUID, limit int) ([]*models.CodeVersion, error)
}

// MessageRepo lists a project's conversation history.
type MessageRepo interface {
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.Message, error)
}

// NameProvider generates a short project name from a description.
type NameProvider interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// JobInserter enqueues background jobs inside the caller's transaction.
type JobInserter interface {
	InsertTx(ctx context.Context, tx pgx.Tx, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

type Service struct {
	repo     Repo
	store    ArtifactStore
	messages MessageRepo
	namer    NameProvider
	jobs     JobInserter
	log      *slog.Logger
}

func NewService(repo Repo, store ArtifactStore, messages MessageRepo, namer NameProvider, jobs JobInserter, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, store: store, messages: messages, namer: namer, jobs: jobs, log: log}
}

// Create makes a new draft project. The name is generated from the
// description when the caller leaves it empty; provider failures fall back
// to a trimmed description rather than failing the create.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, name, description string) (*models.Project, error) {
	if name == "" {
		name = s.generateName(ctx, description)
	}
	p := &models.Project{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Status:      models.ProjectStatusDraft,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) generateName(ctx context.Context, description string) string {
	if s.namer != nil && description != "" {
		out, err := s.namer.Invoke(ctx, generation.ProjectNamePrompt(description))
		if err == nil {
			out = strings.Trim(strings.TrimSpace(out), `"'`)
			if out != "" && len(out) <= 80 {
				return out
			}
		} else {
			s.log.Error("project name generation failed", "error", err)
		}
	}
	fallback := strings.TrimSpace(description)
	if fallback == "" {
		return "New project"
	}
	words := strings.Fields(fallback)
	if len(words) > 4 {
		words = words[:4]
	}
	return strings.Join(words, " ")
}

// Get loads the project and enforces ownership.
func (s *Service) Get(ctx context.Context, ownerID, projectID uuid.UUID) (*models.Project, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Project, error) {
	return s.repo.ListByOwnerID(ctx, ownerID)
}

func (s *Service) Rename(ctx context.Context, ownerID, projectID uuid.UUID, name string) (*models.Project, error) {
	p, err := s.Get(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateName(ctx, projectID, name); err != nil {
		return nil, err
	}
	p.Name = name
	return p, nil
}

// History returns the project's saved versions, newest first.
func (s *Service) History(ctx context.Context, ownerID, projectID uuid.UUID, limit int) ([]*models.CodeVersion, error) {
	if _, err := s.Get(ctx, ownerID, projectID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, projectID, limit)
}

// Revert restores a past version as a new forward version.
func (s *Service) Revert(ctx context.Context, ownerID, projectID uuid.UUID, targetVersion int) (*models.Project, error) {
	p, err := s.Get(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if !p.HasArtifact() {
		return nil, ErrNothingToRevert
	}
	return s.store.Revert(ctx, projectID, targetVersion)
}

// Publish flips the project to published and enqueues the site build in the
// same transaction, so a recorded publish always has a pending job.
func (s *Service) Publish(ctx context.Context, ownerID, projectID uuid.UUID) (*models.Project, error) {
	p, err := s.Get(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if !p.HasArtifact() {
		return nil, fmt.Errorf("project %s has no artifact to publish", projectID)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.repo.UpdateStatusTx(ctx, tx, projectID, models.ProjectStatusPublished); err != nil {
		return nil, err
	}
	if _, err := s.jobs.InsertTx(ctx, tx, publish.PublishSiteJobArgs{ProjectID: projectID}, nil); err != nil {
		return nil, fmt.Errorf("enqueue publish job: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	p.Status = models.ProjectStatusPublished
	return p, nil
}

// Messages returns the project conversation in chronological order.
func (s *Service) Messages(ctx context.Context, ownerID, projectID uuid.UUID) ([]*models.Message, error) {
	if _, err := s.Get(ctx, ownerID, projectID); err != nil {
		return nil, err
	}
	return s.messages.ListByProjectID(ctx, projectID)
}
