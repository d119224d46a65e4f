package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/daveai/backend/internal/intent"
)

func schemasDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "schemas")
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(context.Background(), schemasDir(t))
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func TestValidateOptions_Code_Valid(t *testing.T) {
	v := newTestValidator(t)

	options := json.RawMessage(`{"file_type":"html","complexity":"advanced"}`)
	if err := v.ValidateOptions(context.Background(), intent.Code, options); err != nil {
		t.Fatalf("expected valid code options, got: %v", err)
	}
	// Both fields are optional.
	if err := v.ValidateOptions(context.Background(), intent.Code, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("expected empty options to pass, got: %v", err)
	}
}

func TestValidateOptions_Code_Invalid(t *testing.T) {
	v := newTestValidator(t)

	cases := []struct {
		name    string
		options string
	}{
		{
			name:    "unknown file type",
			options: `{"file_type":"cobol"}`,
		},
		{
			name:    "unknown complexity",
			options: `{"complexity":"heroic"}`,
		},
		{
			name:    "unknown field (additionalProperties: false)",
			options: `{"file_type":"html","surprise":"boom"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateOptions(context.Background(), intent.Code, json.RawMessage(tc.options))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got: %v", err)
			}
		})
	}
}

func TestValidateOptions_UnknownIntent(t *testing.T) {
	v := newTestValidator(t)
	if err := v.ValidateOptions(context.Background(), intent.Intent("sculpture"), json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for unknown intent")
	}
}

func TestGetDeadline(t *testing.T) {
	v := newTestValidator(t)

	cases := []struct {
		intent     intent.Intent
		complexity string
		want       time.Duration
	}{
		{intent.Code, "simple", CodeDeadlineSimple},
		{intent.Code, "standard", CodeDeadlineStandard},
		{intent.Code, "advanced", CodeDeadlineAdvanced},
		{intent.Code, "", CodeDeadlineStandard},
		{intent.Image, "", ImageDeadline},
		{intent.Video, "", VideoDeadline},
		{intent.Discussion, "", DiscussionDeadline},
	}
	for _, tc := range cases {
		if got := v.GetDeadline(tc.intent, tc.complexity); got != tc.want {
			t.Errorf("GetDeadline(%s, %q) = %v, want %v", tc.intent, tc.complexity, got, tc.want)
		}
	}
}
