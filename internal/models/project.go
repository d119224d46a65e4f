package models

import (
	"time"

	"github.com/google/uuid"
)

// Project status enums.
const (
	ProjectStatusDraft      = "draft"
	ProjectStatusGenerating = "generating"
	ProjectStatusReady      = "ready"
	ProjectStatusPublished  = "published"
)

type Project struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Code          string    `json:"code"`
	HTMLPreview   string    `json:"html_preview"`
	PublishedURL  string    `json:"published_url,omitempty"`
	VersionNumber int       `json:"version_number"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasArtifact reports whether the project carries a generated artifact
// that must be snapshotted before being overwritten.
func (p *Project) HasArtifact() bool {
	return p.VersionNumber >= 1 && p.Code != ""
}
