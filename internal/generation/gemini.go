package generation

import (
	"context"
	"encoding/base64"
	"fmt"

	genai "google.golang.org/genai"
)

// GeminiProvider is a thin wrapper around the official genai client. It
// only covers the API call itself; debiting, refunds and pacing live in
// the orchestrator.
type GeminiProvider struct {
	cli        *genai.Client
	model      string
	imageModel string
}

// NewGeminiProvider builds the provider. The genai client reads its API
// key from the environment.
func NewGeminiProvider(ctx context.Context, model, imageModel string) (*GeminiProvider, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if imageModel == "" {
		imageModel = "imagen-3.0-generate-002"
	}
	return &GeminiProvider{cli: cli, model: model, imageModel: imageModel}, nil
}

func (g *GeminiProvider) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrProvider)
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// GenerateImage returns the generated image as a data URL, so the result
// can be embedded directly into the artifact without an upload step.
func (g *GeminiProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateImages(ctx, g.imageModel, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return "", fmt.Errorf("%w: no image returned", ErrProvider)
	}
	img := resp.GeneratedImages[0].Image
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img.ImageBytes), nil
}
