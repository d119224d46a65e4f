package models

import (
	"time"

	"github.com/google/uuid"
)

// CodeVersion is an immutable snapshot of a project's artifact captured
// just before it was overwritten. Never mutated after insert.
type CodeVersion struct {
	ID                uuid.UUID `json:"id"`
	ProjectID         uuid.UUID `json:"project_id"`
	Code              string    `json:"code"`
	HTMLPreview       string    `json:"html_preview"`
	VersionNumber     int       `json:"version_number"`
	Description       string    `json:"description"`
	TriggeringRequest string    `json:"triggering_request,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
