package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/daveai/backend/internal/intent"
	"github.com/daveai/backend/internal/models"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrUnauthorized    = errors.New("project belongs to another account")
)

// ProjectRepo is the minimal project repository interface for the orchestrator.
type ProjectRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// Ledger is the credit operations the orchestrator needs.
type Ledger interface {
	Charge(ctx context.Context, accountID uuid.UUID, projectID *uuid.UUID, amount int, description string) (int, error)
	Refund(ctx context.Context, accountID uuid.UUID, projectID *uuid.UUID, amount int, description string) error
}

// ArtifactStore commits a new artifact state inside the caller's transaction.
type ArtifactStore interface {
	CommitTx(ctx context.Context, tx pgx.Tx, project *models.Project, newCode, newPreview, triggeringRequest, description string) (*models.CodeVersion, error)
}

// MessageRepo records conversation messages inside the caller's transaction.
type MessageRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, m *models.Message) error
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Turn is one generation request against a project.
type Turn struct {
	ProjectID      uuid.UUID
	AccountID      uuid.UUID
	Request        string
	DiscussionMode bool
	FileType       string
	Complexity     string
}

// Result is the outcome of a completed turn.
type Result struct {
	Intent         intent.Intent
	Content        string
	CreditsCharged int
	Project        *models.Project
	Snapshot       *models.CodeVersion
}

// Orchestrator runs a single generation turn end to end: classify, charge,
// invoke, stream, commit. Ordering is a contract: nothing is charged before
// classification, nothing is invoked before the charge commits, and if the
// provider fails the charge is refunded before the error surfaces.
type Orchestrator struct {
	DB       TxBeginner
	Projects ProjectRepo
	Ledger   Ledger
	Store    ArtifactStore
	Messages MessageRepo
	Provider Provider

	// ProviderTimeout caps the provider call per intent; handler wiring
	// supplies it and tests may leave it nil for no extra deadline.
	ProviderTimeout func(it intent.Intent, complexity string) time.Duration

	// StreamInterval is the word streaming pace; zero means the default.
	StreamInterval time.Duration
}

// Run executes one turn. deliver receives the growing assistant text for
// live display and may be nil. Cancellation of ctx after the provider call
// succeeds does not lose the artifact: the commit runs on a detached
// context so the paid-for result is always recorded.
func (o *Orchestrator) Run(ctx context.Context, turn Turn, deliver func(chunk string)) (*Result, error) {
	if deliver == nil {
		deliver = func(string) {}
	}

	project, err := o.Projects.GetByID(ctx, turn.ProjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if project.OwnerID != turn.AccountID {
		return nil, ErrUnauthorized
	}

	it := intent.Classify(turn.Request, turn.DiscussionMode)
	charged, err := o.Ledger.Charge(ctx, turn.AccountID, &turn.ProjectID, it.Cost(),
		fmt.Sprintf("%s generation", it))
	if err != nil {
		return nil, err
	}

	content, err := o.invoke(ctx, it, turn, project, deliver)
	if err != nil {
		o.refund(ctx, turn, charged, it)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrProvider, err)
		}
		return nil, err
	}

	// Streaming is cosmetic; a viewer disconnect must not undo the turn.
	if err := StreamWords(ctx, content, o.StreamInterval, deliver); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		o.refund(ctx, turn, charged, it)
		return nil, err
	}

	result, err := o.commit(context.WithoutCancel(ctx), it, turn, content, charged)
	if err != nil {
		o.refund(ctx, turn, charged, it)
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) invoke(ctx context.Context, it intent.Intent, turn Turn, project *models.Project, deliver func(chunk string)) (string, error) {
	if o.ProviderTimeout != nil {
		if d := o.ProviderTimeout(it, turn.Complexity); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
	}

	switch it {
	case intent.Discussion:
		out, err := o.Provider.Invoke(ctx, discussionPrompt(turn.Request))
		if err != nil {
			return "", providerErr(err)
		}
		return out, nil

	case intent.Image:
		url, err := o.Provider.GenerateImage(ctx, turn.Request)
		if err != nil {
			return "", providerErr(err)
		}
		return fmt.Sprintf("Image generated:\n\n![Generated image](%s)", url), nil

	case intent.Video:
		plan, err := o.Provider.Invoke(ctx, videoPrompt(turn.Request))
		if err != nil {
			return "", providerErr(err)
		}
		return videoMessage(plan), nil

	case intent.Code:
		plan, err := o.Provider.Invoke(ctx, planPrompt(turn.Request))
		if err != nil {
			return "", providerErr(err)
		}
		deliver("Plan: " + plan + "\n\n")
		// Best effort; the turn does not depend on the flag sticking.
		if err := o.Projects.UpdateStatus(ctx, project.ID, models.ProjectStatusGenerating); err == nil {
			project.Status = models.ProjectStatusGenerating
		}
		code, err := o.Provider.Invoke(ctx, codePrompt(turn, project.Code))
		if err != nil {
			return "", providerErr(err)
		}
		return code, nil
	}
	return "", fmt.Errorf("unknown intent %q", it)
}

// commit records the turn's durable effects in one transaction: for code
// intents the new artifact plus its snapshot, and for every intent the user
// request and the assistant reply. A failed or unpaid turn therefore leaves
// no trace in the conversation.
func (o *Orchestrator) commit(ctx context.Context, it intent.Intent, turn Turn, content string, charged int) (*Result, error) {
	tx, err := o.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result := &Result{Intent: it, Content: content, CreditsCharged: charged}

	assistantContent := content
	if it == intent.Code {
		project, err := o.Projects.GetByIDForUpdate(ctx, tx, turn.ProjectID)
		if err != nil {
			return nil, err
		}
		preview := wrapPreview(project.Name, content)
		snapshot, err := o.Store.CommitTx(ctx, tx, project, content, preview, turn.Request, "autosave before update")
		if err != nil {
			return nil, err
		}
		result.Project = project
		result.Snapshot = snapshot
		assistantContent = content + fmt.Sprintf("\n\nProject ready. Version %d saved.", project.VersionNumber)
		result.Content = assistantContent
	}

	userMsg := &models.Message{
		ID:        uuid.New(),
		ProjectID: turn.ProjectID,
		Role:      models.MessageRoleUser,
		Content:   turn.Request,
	}
	if err := o.Messages.CreateTx(ctx, tx, userMsg); err != nil {
		return nil, err
	}
	assistantMsg := &models.Message{
		ID:          uuid.New(),
		ProjectID:   turn.ProjectID,
		Role:        models.MessageRoleAssistant,
		Content:     assistantContent,
		CreditsUsed: charged,
	}
	if err := o.Messages.CreateTx(ctx, tx, assistantMsg); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) refund(ctx context.Context, turn Turn, charged int, it intent.Intent) {
	if charged <= 0 {
		return
	}
	// The refund must land even if the request context is already dead.
	_ = o.Ledger.Refund(context.WithoutCancel(ctx), turn.AccountID, &turn.ProjectID, charged,
		fmt.Sprintf("refund: %s generation failed", it))
}

func providerErr(err error) error {
	if errors.Is(err, ErrProvider) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrProvider, err)
}

// wrapPreview turns generated code into a renderable HTML document. Full
// documents pass through untouched.
func wrapPreview(name, code string) string {
	trimmed := strings.TrimSpace(code)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		return trimmed
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`, name, trimmed)
}
