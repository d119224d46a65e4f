package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/daveai/backend/internal/intent"
)

// Provider deadlines per intent; code scales with the requested complexity.
const (
	CodeDeadlineSimple   = 45 * time.Second
	CodeDeadlineStandard = 90 * time.Second
	CodeDeadlineAdvanced = 120 * time.Second
	ImageDeadline        = 60 * time.Second
	VideoDeadline        = 45 * time.Second
	DiscussionDeadline   = 30 * time.Second
)

// ErrValidation can be used with errors.Is to detect option validation failures.
var ErrValidation = errors.New("validation failed")

// Validator checks generation request options against the per-intent JSON
// schemas shipped in the schemas directory.
type Validator struct {
	optionSchemas map[string]*jsonschema.Schema
}

// NewValidator loads all *.json schema files from schemaDir and compiles
// options_schema per intent. schemaDir is the path to the schemas directory
// (e.g. "schemas" when running from the repository root).
func NewValidator(ctx context.Context, schemaDir string) (*Validator, error) {
	_ = ctx
	entries, err := os.ReadDir(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %q: %w", schemaDir, err)
	}
	optionSchemas := make(map[string]*jsonschema.Schema)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		name = strings.TrimSuffix(name, ".v1")
		path := filepath.Join(schemaDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		var file struct {
			Properties struct {
				OptionsSchema json.RawMessage `json:"options_schema"`
			} `json:"properties"`
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %q: %w", path, err)
		}
		if len(file.Properties.OptionsSchema) == 0 {
			return nil, fmt.Errorf("%q: missing options_schema", path)
		}
		id := "https://daveai.dev/schemas/" + name + ".options"
		optionSchemas[name], err = jsonschema.CompileString(id, string(file.Properties.OptionsSchema))
		if err != nil {
			return nil, fmt.Errorf("compile options schema %q: %w", name, err)
		}
	}

	return &Validator{optionSchemas: optionSchemas}, nil
}

// ValidateOptions performs hard reject: returns an error wrapping
// ErrValidation if options do not match the intent's options_schema.
func (v *Validator) ValidateOptions(ctx context.Context, it intent.Intent, options json.RawMessage) error {
	schema, ok := v.optionSchemas[string(it)]
	if !ok {
		return fmt.Errorf("unknown intent %q", it)
	}
	var doc interface{}
	if err := json.Unmarshal(options, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// GetDeadline returns the provider deadline for the intent. Code turns use
// the complexity option: simple=45s, standard=90s, advanced=120s.
func (v *Validator) GetDeadline(it intent.Intent, complexity string) time.Duration {
	switch it {
	case intent.Code:
		switch complexity {
		case "simple":
			return CodeDeadlineSimple
		case "advanced":
			return CodeDeadlineAdvanced
		default:
			return CodeDeadlineStandard
		}
	case intent.Image:
		return ImageDeadline
	case intent.Video:
		return VideoDeadline
	default:
		return DiscussionDeadline
	}
}
