package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/tabforge/internal/factory"
)

// InstanceHandler implements HTTP handlers for tab instances.
type InstanceHandler struct {
	factory *factory.Factory
}

// NewInstanceHandler creates a new InstanceHandler.
func NewInstanceHandler(f *factory.Factory) *InstanceHandler {
	return &InstanceHandler{factory: f}
}

type createInstanceRequest struct {
	ProjectID string `json:"projectId"`
}

// CreateInstance binds the tab in the path to a project.
// POST /v1/tabs/{id}/instances
func (h *InstanceHandler) CreateInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req createInstanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "projectId is required")
		return
	}
	cfg, ok := h.factory.GetTab(id)
	if !ok {
		notFound(w, "tab", id)
		return
	}
	writeJSON(w, http.StatusCreated, h.factory.CreateTabInstance(cfg, req.ProjectID))
}

// ListTabInstances returns the instances of the tab in the path.
// GET /v1/tabs/{id}/instances
func (h *InstanceHandler) ListTabInstances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"instances": h.factory.InstancesForTab(chi.URLParam(r, "id")),
	})
}

// ListProjectInstances returns the instances bound to a project.
// GET /v1/projects/{projectID}/instances
func (h *InstanceHandler) ListProjectInstances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"instances": h.factory.InstancesForProject(chi.URLParam(r, "projectID")),
	})
}

func (h *InstanceHandler) GetInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inst, ok := h.factory.GetTabInstance(id)
	if !ok {
		notFound(w, "instance", id)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// TouchInstance refreshes the instance's last access time.
// POST /v1/instances/{id}/touch
func (h *InstanceHandler) TouchInstance(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.factory.TouchInstance(chi.URLParam(r, "id")))
}

type entityCountRequest struct {
	Count *int `json:"count"`
}

// RecordEntityCount stores the entity count reported by the UI.
// POST /v1/instances/{id}/entity-count
func (h *InstanceHandler) RecordEntityCount(w http.ResponseWriter, r *http.Request) {
	var req entityCountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Count == nil || *req.Count < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_COUNT", "count must be a non-negative integer")
		return
	}
	h.respond(w)(h.factory.RecordEntityCount(chi.URLParam(r, "id"), *req.Count))
}

// RefreshInstance re-copies the current tab configuration.
// POST /v1/instances/{id}/refresh
func (h *InstanceHandler) RefreshInstance(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.factory.RefreshInstance(chi.URLParam(r, "id")))
}

// POST /v1/instances/{id}/activate
func (h *InstanceHandler) ActivateInstance(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.factory.SetInstanceActive(chi.URLParam(r, "id"), true))
}

// POST /v1/instances/{id}/deactivate
func (h *InstanceHandler) DeactivateInstance(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.factory.SetInstanceActive(chi.URLParam(r, "id"), false))
}

func (h *InstanceHandler) respond(w http.ResponseWriter) func(factory.TabInstance, error) {
	return func(inst factory.TabInstance, err error) {
		if err != nil {
			errorToHTTP(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inst)
	}
}
