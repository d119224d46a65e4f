package projects

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/daveai/backend/internal/artifact"
	"github.com/daveai/backend/internal/middleware"
	"github.com/daveai/backend/internal/models"
)

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type RenameProjectRequest struct {
	Name string `json:"name"`
}

type RevertRequest struct {
	VersionNumber int `json:"version_number"`
}

type ProjectResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Code          string `json:"code,omitempty"`
	HTMLPreview   string `json:"html_preview,omitempty"`
	PublishedURL  string `json:"published_url,omitempty"`
	VersionNumber int    `json:"version_number"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type VersionResponse struct {
	ID                string `json:"id"`
	VersionNumber     int    `json:"version_number"`
	Description       string `json:"description,omitempty"`
	TriggeringRequest string `json:"triggering_request,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type MessageResponse struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Content     string `json:"content"`
	CreditsUsed int    `json:"credits_used"`
	CreatedAt   string `json:"created_at"`
}

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" && req.Description == "" {
		http.Error(w, "missing name or description", http.StatusBadRequest)
		return
	}
	p, err := h.svc.Create(r.Context(), acc.ID, req.Name, req.Description)
	if err != nil {
		h.log.Error("create project failed", "error", err)
		http.Error(w, "create project failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, projectToResponse(p))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	list, err := h.svc.List(r.Context(), acc.ID)
	if err != nil {
		h.log.Error("list projects failed", "error", err)
		http.Error(w, "list projects failed", http.StatusInternalServerError)
		return
	}
	resp := make([]ProjectResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, projectToResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	p, err := h.svc.Get(r.Context(), acc.ID, id)
	if err != nil {
		h.writeServiceError(w, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, projectToResponse(p))
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	var req RenameProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}
	p, err := h.svc.Rename(r.Context(), acc.ID, id, req.Name)
	if err != nil {
		h.writeServiceError(w, "rename project", err)
		return
	}
	writeJSON(w, http.StatusOK, projectToResponse(p))
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
	}
	versions, err := h.svc.History(r.Context(), acc.ID, id, limit)
	if err != nil {
		h.writeServiceError(w, "list versions", err)
		return
	}
	resp := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		resp = append(resp, versionToResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Revert(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	var req RevertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VersionNumber < 1 {
		http.Error(w, "missing or invalid version_number", http.StatusBadRequest)
		return
	}
	p, err := h.svc.Revert(r.Context(), acc.ID, id, req.VersionNumber)
	if err != nil {
		if errors.Is(err, artifact.ErrVersionNotFound) || errors.Is(err, ErrNothingToRevert) {
			http.Error(w, "version not found", http.StatusNotFound)
			return
		}
		h.writeServiceError(w, "revert project", err)
		return
	}
	writeJSON(w, http.StatusOK, projectToResponse(p))
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	p, err := h.svc.Publish(r.Context(), acc.ID, id)
	if err != nil {
		h.writeServiceError(w, "publish project", err)
		return
	}
	writeJSON(w, http.StatusAccepted, projectToResponse(p))
}

func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	msgs, err := h.svc.Messages(r.Context(), acc.ID, id)
	if err != nil {
		h.writeServiceError(w, "list messages", err)
		return
	}
	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, MessageResponse{
			ID:          m.ID.String(),
			Role:        m.Role,
			Content:     m.Content,
			CreditsUsed: m.CreditsUsed,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		http.Error(w, "project not found", http.StatusNotFound)
	case errors.Is(err, ErrNotOwner):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		h.log.Error(op+" failed", "error", err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func projectToResponse(p *models.Project) ProjectResponse {
	return ProjectResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Code:          p.Code,
		HTMLPreview:   p.HTMLPreview,
		PublishedURL:  p.PublishedURL,
		VersionNumber: p.VersionNumber,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}

func versionToResponse(v *models.CodeVersion) VersionResponse {
	return VersionResponse{
		ID:                v.ID.String(),
		VersionNumber:     v.VersionNumber,
		Description:       v.Description,
		TriggeringRequest: v.TriggeringRequest,
		CreatedAt:         v.CreatedAt.Format(time.RFC3339),
	}
}
