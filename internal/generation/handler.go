package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/daveai/backend/internal/intent"
	"github.com/daveai/backend/internal/ledger"
	"github.com/daveai/backend/internal/middleware"
	"github.com/daveai/backend/internal/services"
)

type GenerateRequest struct {
	Request        string          `json:"request"`
	DiscussionMode bool            `json:"discussion_mode"`
	Options        json.RawMessage `json:"options,omitempty"`
}

type generateOptions struct {
	FileType   string `json:"file_type"`
	Complexity string `json:"complexity"`
}

// doneEvent is the terminal SSE payload carrying the turn's outcome.
type doneEvent struct {
	Intent         string `json:"intent"`
	Content        string `json:"content"`
	CreditsCharged int    `json:"credits_charged"`
	VersionNumber  int    `json:"version_number,omitempty"`
	ProjectStatus  string `json:"project_status,omitempty"`
}

type Handler struct {
	orch      *Orchestrator
	validator *services.Validator
	log       *slog.Logger
}

func NewHandler(orch *Orchestrator, validator *services.Validator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if validator != nil && orch.ProviderTimeout == nil {
		orch.ProviderTimeout = validator.GetDeadline
	}
	return &Handler{orch: orch, validator: validator, log: log}
}

// Generate runs one generation turn and streams the assistant output as
// server-sent events. Errors before the first streamed chunk map to plain
// HTTP status codes; after that they arrive as a terminal error event.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Request == "" {
		http.Error(w, "missing request text", http.StatusBadRequest)
		return
	}

	var opts generateOptions
	if len(req.Options) > 0 {
		it := intent.Classify(req.Request, req.DiscussionMode)
		if h.validator != nil {
			if err := h.validator.ValidateOptions(r.Context(), it, req.Options); err != nil {
				if errors.Is(err, services.ErrValidation) {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				http.Error(w, "invalid options", http.StatusBadRequest)
				return
			}
		}
		if err := json.Unmarshal(req.Options, &opts); err != nil {
			http.Error(w, "invalid options", http.StatusBadRequest)
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// The SSE switch happens lazily on the first streamed chunk, so a turn
	// that fails before producing output still gets a plain status code.
	streaming := false
	startStream := func() {
		if streaming {
			return
		}
		streaming = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	turn := Turn{
		ProjectID:      projectID,
		AccountID:      acc.ID,
		Request:        req.Request,
		DiscussionMode: req.DiscussionMode,
		FileType:       opts.FileType,
		Complexity:     opts.Complexity,
	}
	result, err := h.orch.Run(r.Context(), turn, func(chunk string) {
		startStream()
		writeSSE(w, "chunk", chunk)
		flusher.Flush()
	})
	if err != nil {
		status, msg := h.mapRunError(err)
		if !streaming {
			http.Error(w, msg, status)
			return
		}
		payload, _ := json.Marshal(map[string]any{"status": status, "error": msg})
		writeSSE(w, "error", string(payload))
		flusher.Flush()
		return
	}

	startStream()
	done := doneEvent{
		Intent:         string(result.Intent),
		Content:        result.Content,
		CreditsCharged: result.CreditsCharged,
	}
	if result.Project != nil {
		done.VersionNumber = result.Project.VersionNumber
		done.ProjectStatus = result.Project.Status
	}
	payload, _ := json.Marshal(done)
	writeSSE(w, "done", string(payload))
	flusher.Flush()
}

func (h *Handler) mapRunError(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient credits"
	case errors.Is(err, ErrProjectNotFound):
		return http.StatusNotFound, "project not found"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrProvider):
		return http.StatusBadGateway, "generation provider unavailable"
	}
	h.log.Error("generation turn failed", "error", err)
	return http.StatusInternalServerError, "generation failed"
}

// writeSSE emits one event; multi-line data becomes multiple data: lines
// per the SSE framing rules.
func writeSSE(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
