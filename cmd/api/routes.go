package main

import (
	"net/http"

	"github.com/daveai/backend/internal/generation"
	"github.com/daveai/backend/internal/projects"
)

// RegisterV1Routes adds the /v1/ project API endpoints to the given mux.
// Middleware chain: BearerAuth -> handler.
func RegisterV1Routes(
	mux *http.ServeMux,
	projectsHandler *projects.Handler,
	generationHandler *generation.Handler,
	authed func(http.Handler) http.Handler,
) {
	mux.Handle("POST /v1/projects", authed(http.HandlerFunc(projectsHandler.Create)))
	mux.Handle("GET /v1/projects", authed(http.HandlerFunc(projectsHandler.List)))
	mux.Handle("GET /v1/projects/{id}", authed(http.HandlerFunc(projectsHandler.Get)))
	mux.Handle("PATCH /v1/projects/{id}", authed(http.HandlerFunc(projectsHandler.Rename)))

	mux.Handle("GET /v1/projects/{id}/versions", authed(http.HandlerFunc(projectsHandler.History)))
	mux.Handle("POST /v1/projects/{id}/revert", authed(http.HandlerFunc(projectsHandler.Revert)))
	mux.Handle("POST /v1/projects/{id}/publish", authed(http.HandlerFunc(projectsHandler.Publish)))
	mux.Handle("GET /v1/projects/{id}/messages", authed(http.HandlerFunc(projectsHandler.Messages)))

	mux.Handle("POST /v1/projects/{id}/generations", authed(http.HandlerFunc(generationHandler.Generate)))
}
