package publish

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/daveai/backend/internal/models"
)

type PublishSiteJobArgs struct {
	ProjectID uuid.UUID `json:"project_id"`
}

func (PublishSiteJobArgs) Kind() string { return "publish_site" }

// ProjectService defines the contract the worker needs to load a project
// and record its published URL.
type ProjectService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	SetPublished(ctx context.Context, id uuid.UUID, publishedURL string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type PublishSiteWorker struct {
	river.WorkerDefaults[PublishSiteJobArgs]
	projects ProjectService
}

func NewPublishSiteWorker(projects ProjectService) *PublishSiteWorker {
	return &PublishSiteWorker{projects: projects}
}

// Work builds the publishable document for the project and records its URL.
// The artifact is immutable during publish, so re-running the job after a
// crash produces the same result.
func (w *PublishSiteWorker) Work(ctx context.Context, job *river.Job[PublishSiteJobArgs]) error {
	project, err := w.projects.GetByID(ctx, job.Args.ProjectID)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if project.HTMLPreview == "" {
		// Nothing to publish; undo the status flip so the UI recovers.
		if err := w.projects.UpdateStatus(ctx, project.ID, models.ProjectStatusReady); err != nil {
			return fmt.Errorf("no artifact to publish AND failed to reset status: %w", err)
		}
		return nil
	}

	doc := injectPublishExtras(project.HTMLPreview)
	url := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(doc))
	if err := w.projects.SetPublished(ctx, project.ID, url); err != nil {
		return fmt.Errorf("record published url: %w", err)
	}
	return nil
}

const watermarkBlock = `<div style="position:fixed;bottom:12px;right:12px;background:rgba(0,0,0,0.75);color:#fff;padding:6px 12px;border-radius:8px;font-family:system-ui,sans-serif;font-size:12px;z-index:99999;">Built with Dave AI</div>`

const analyticsScript = `<script>
(function(){
  try {
    var payload = {page: location.pathname, referrer: document.referrer, ts: Date.now()};
    navigator.sendBeacon && navigator.sendBeacon('/api/v1/analytics', JSON.stringify(payload));
  } catch (e) {}
})();
</script>`

// injectPublishExtras appends the watermark and the visit tracker to the
// document, before </body> when one exists.
func injectPublishExtras(doc string) string {
	extras := watermarkBlock + "\n" + analyticsScript
	if idx := strings.LastIndex(strings.ToLower(doc), "</body>"); idx >= 0 {
		return doc[:idx] + extras + "\n" + doc[idx:]
	}
	return doc + "\n" + extras
}
