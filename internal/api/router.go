package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ronda/internal/engine"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(eng *engine.Engine, db Store, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(eng, db)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Checkpoint catalog CRUD.
	r.Get("/checkpoints", h.ListCheckpoints)
	r.Post("/checkpoints", h.CreateCheckpoint)
	r.Get("/checkpoints/{id}", h.GetCheckpoint)
	r.Put("/checkpoints/{id}", h.UpdateCheckpoint)
	r.Delete("/checkpoints/{id}", h.DeleteCheckpoint)

	// Patrol session lifecycle.
	r.Post("/patrol/start", h.StartPatrol)
	r.Post("/patrol/end", h.EndPatrol)
	r.Post("/patrol/verify/{id}", h.VerifyCheckpoint)
	r.Get("/patrol/status", h.PatrolStatus)

	// Location sample ingest.
	r.Post("/position", h.UpdatePosition)

	// Audit log.
	r.Get("/logs", h.ListLogs)

	// Runtime settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
