package models

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message is one entry in a project's append-only chat transcript.
// CreditsUsed on an assistant message equals the amount actually charged
// for that turn (zero on a free day or with the unlimited entitlement).
type Message struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	CreditsUsed int       `json:"credits_used"`
	CreatedAt   time.Time `json:"created_at"`
}
