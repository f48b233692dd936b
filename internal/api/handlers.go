package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/ronda/internal/apperr"
	"github.com/starford/ronda/internal/engine"
	"github.com/starford/ronda/internal/models"
	"github.com/starford/ronda/internal/store"
)

// Store bundles the persistence operations the API depends on.
type Store interface {
	store.Catalog
	store.LogStore
	store.SnapshotStore
}

// Handler carries the API dependencies.
type Handler struct {
	eng *engine.Engine
	db  Store
}

// NewHandler creates an API handler.
func NewHandler(eng *engine.Engine, db Store) *Handler {
	return &Handler{eng: eng, db: db}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrNoActiveSession):
		writeJSON(w, http.StatusNotFound, errorBody("no active patrol session"))
	case errors.Is(err, apperr.ErrSessionActive):
		writeJSON(w, http.StatusConflict, errorBody("a patrol session is already active"))
	case errors.Is(err, apperr.ErrAlreadyResolved):
		writeJSON(w, http.StatusConflict, errorBody("checkpoint already resolved"))
	case errors.Is(err, apperr.ErrOutOfRange):
		writeJSON(w, http.StatusConflict, errorBody("position not within checkpoint radius"))
	case errors.Is(err, apperr.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error("internal error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeBody(r *http.Request, dst interface{ Validate() error }) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return dst.Validate()
}

// ListCheckpoints handles GET /checkpoints.
func (h *Handler) ListCheckpoints(w http.ResponseWriter, r *http.Request) {
	cps, err := h.db.ListCheckpoints()
	if err != nil {
		writeError(w, err)
		return
	}
	if cps == nil {
		cps = []models.Checkpoint{}
	}
	writeJSON(w, http.StatusOK, CheckpointListResponse{Checkpoints: cps, Total: len(cps)})
}

// CreateCheckpoint handles POST /checkpoints.
func (h *Handler) CreateCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req CheckpointRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	cp := models.Checkpoint{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		TimeMinutes:  req.TimeMinutes,
	}
	if err := h.db.CreateCheckpoint(cp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cp)
}

// GetCheckpoint handles GET /checkpoints/{id}.
func (h *Handler) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	cp, err := h.db.GetCheckpoint(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

// UpdateCheckpoint handles PUT /checkpoints/{id}.
func (h *Handler) UpdateCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req CheckpointRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	cp := models.Checkpoint{
		ID:           chi.URLParam(r, "id"),
		Name:         req.Name,
		Description:  req.Description,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		TimeMinutes:  req.TimeMinutes,
	}
	if err := h.db.UpdateCheckpoint(cp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

// DeleteCheckpoint handles DELETE /checkpoints/{id}.
func (h *Handler) DeleteCheckpoint(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteCheckpoint(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartPatrol handles POST /patrol/start. The session runs over the
// checkpoint catalog as it stands at this instant.
func (h *Handler) StartPatrol(w http.ResponseWriter, r *http.Request) {
	cps, err := h.db.ListCheckpoints()
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.eng.Start(r.Context(), cps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// EndPatrol handles POST /patrol/end.
func (h *Handler) EndPatrol(w http.ResponseWriter, r *http.Request) {
	h.eng.End(r.Context(), true)
	w.WriteHeader(http.StatusNoContent)
}

// VerifyCheckpoint handles POST /patrol/verify/{id}. A body with
// coordinates makes the verification geofence-checked; an empty body (or
// one without coordinates) verifies manually.
func (h *Handler) VerifyCheckpoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req VerifyRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
	}

	var err error
	if req.Latitude != nil && req.Longitude != nil {
		err = h.eng.VerifyAt(r.Context(), id, models.Position{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
		})
	} else {
		err = h.eng.Verify(r.Context(), id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if view, ok := h.eng.Status(); ok {
		writeJSON(w, http.StatusOK, view)
		return
	}
	// Verifying the last checkpoint ends the session.
	w.WriteHeader(http.StatusNoContent)
}

// PatrolStatus handles GET /patrol/status.
func (h *Handler) PatrolStatus(w http.ResponseWriter, r *http.Request) {
	view, ok := h.eng.Status()
	if !ok {
		writeError(w, apperr.ErrNoActiveSession)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdatePosition handles POST /position.
func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	verified := h.eng.UpdatePosition(r.Context(), models.Position{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Accuracy:  req.Accuracy,
	})
	if verified == nil {
		verified = []string{}
	}
	writeJSON(w, http.StatusOK, PositionResponse{Verified: verified})
}

// ListLogs handles GET /logs?session_id=&limit=.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
			return
		}
		limit = n
	}
	logs, err := h.db.ListLogs(r.URL.Query().Get("session_id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []models.LogEntry{}
	}
	writeJSON(w, http.StatusOK, LogListResponse{Logs: logs})
}

// GetSettings handles GET /settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Settings())
}

// UpdateSettings handles PUT /settings. The new settings are persisted so
// they survive a restart; persistence failures do not fail the request.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	settings := req.Settings()
	h.eng.UpdateSettings(settings)
	if blob, err := json.Marshal(settings); err == nil {
		if err := h.db.SaveSnapshot(store.SnapshotSettings, blob); err != nil {
			slog.Warn("persist settings failed", slog.String("error", err.Error()))
		}
	}
	writeJSON(w, http.StatusOK, h.eng.Settings())
}
