package generation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/daveai/backend/internal/middleware"
	"github.com/daveai/backend/internal/models"
)

func newTestHandler(f *fixture) *Handler {
	return NewHandler(f.orch, nil, nil)
}

func accountFor(f *fixture) *models.Account {
	return &models.Account{ID: f.owner, Email: "owner@example.com"}
}

func postGeneration(t *testing.T, f *fixture, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/"+f.project.ID.String()+"/generations", strings.NewReader(body))
	req.SetPathValue("id", f.project.ID.String())
	req = req.WithContext(middleware.WithAccount(req.Context(), accountFor(f)))
	rec := httptest.NewRecorder()
	h.Generate(rec, req)
	return rec
}

func TestGenerateStreamsAndFinishes(t *testing.T) {
	f := newFixture(10)
	f.provider.reply = func(prompt string) (string, error) {
		if strings.Contains(prompt, "Draft a short plan") {
			return "the plan", nil
		}
		return "final code", nil
	}
	h := newTestHandler(f)

	rec := postGeneration(t, f, h, `{"request":"build a landing page"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type: got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: chunk") {
		t.Error("expected streamed chunk events")
	}
	if !strings.Contains(body, "event: done") {
		t.Error("expected a terminal done event")
	}
	if !strings.Contains(body, `"credits_charged":1`) {
		t.Errorf("done event should report the charge:\n%s", body)
	}
}

func TestGenerateInsufficientFundsIsPlainStatus(t *testing.T) {
	f := newFixture(0)
	h := newTestHandler(f)

	// The charge fails before anything is streamed, so the client gets a
	// real status code rather than a 200 with an error event inside.
	rec := postGeneration(t, f, h, `{"request":"build a landing page"}`)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status: got %d, want 402:\n%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct == "text/event-stream" {
		t.Error("a pre-stream failure must not switch to SSE")
	}
	if !strings.Contains(rec.Body.String(), "insufficient credits") {
		t.Errorf("body should say why:\n%s", rec.Body.String())
	}
	if f.messages.count() != 0 {
		t.Error("an unpaid turn must leave no messages")
	}
}

func TestGenerateFailureMidStreamIsErrorEvent(t *testing.T) {
	f := newFixture(10)
	f.provider.reply = func(prompt string) (string, error) {
		if strings.Contains(prompt, "Draft a short plan") {
			return "the plan", nil
		}
		return "", ErrProvider
	}
	h := newTestHandler(f)

	// The plan chunk has already gone out, so the failure travels inside
	// the event stream on the committed 200 response.
	rec := postGeneration(t, f, h, `{"request":"build a landing page"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: chunk") {
		t.Fatalf("expected the plan chunk before the failure:\n%s", body)
	}
	if !strings.Contains(body, "event: error") {
		t.Fatalf("expected a terminal error event:\n%s", body)
	}
	if !strings.Contains(body, `"status":502`) || !strings.Contains(body, "generation provider unavailable") {
		t.Errorf("error event should carry the 502 mapping:\n%s", body)
	}
	if len(f.ledger.refunds) != 1 {
		t.Errorf("refunds: got %d, want 1", len(f.ledger.refunds))
	}
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	f := newFixture(10)
	h := newTestHandler(f)

	// Missing request text.
	rec := postGeneration(t, f, h, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty request: got %d, want 400", rec.Code)
	}

	// Malformed project id.
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/not-a-uuid/generations", strings.NewReader(`{"request":"x"}`))
	req.SetPathValue("id", "not-a-uuid")
	req = req.WithContext(middleware.WithAccount(req.Context(), accountFor(f)))
	rec = httptest.NewRecorder()
	h.Generate(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad uuid: got %d, want 400", rec.Code)
	}

	// No authenticated account.
	req = httptest.NewRequest(http.MethodPost, "/v1/projects/x/generations", strings.NewReader(`{"request":"x"}`))
	rec = httptest.NewRecorder()
	h.Generate(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated: got %d, want 401", rec.Code)
	}
}
