package generation

import (
	"context"
	"errors"
)

// ErrProvider is the generic failure surfaced by the external generation
// provider. A turn that already debited credits is refunded when it occurs.
var ErrProvider = errors.New("generation provider error")

// Provider is the external generation backend. Synchronous request/response
// from the orchestrator's point of view; incremental delivery to the caller
// is simulated by the orchestrator, never by the provider.
type Provider interface {
	Invoke(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (imageURL string, err error)
}
