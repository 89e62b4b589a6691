package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/tabforge/internal/components"
	"github.com/matthewbaird/tabforge/internal/factory"
	"github.com/matthewbaird/tabforge/internal/tabconfig"
)

// TabHandler implements HTTP handlers for tab configurations.
type TabHandler struct {
	factory    *factory.Factory
	resolver   *components.Resolver
	validators tabconfig.ValidatorSet
}

// NewTabHandler creates a new TabHandler.
func NewTabHandler(f *factory.Factory, resolver *components.Resolver) *TabHandler {
	return &TabHandler{factory: f, resolver: resolver, validators: tabconfig.DefaultValidators()}
}

// ListTabs returns every tab in registration order.
// GET /v1/tabs
func (h *TabHandler) ListTabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tabs":                  h.factory.ListTabs(),
		"defaultCharacterTabId": h.factory.DefaultCharacterTabID(),
	})
}

// CreateTab registers a tab seeded from a template.
// POST /v1/tabs
func (h *TabHandler) CreateTab(w http.ResponseWriter, r *http.Request) {
	var req factory.CreateOptions
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Name == "" || req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "name and displayName are required")
		return
	}
	writeJSON(w, http.StatusCreated, h.factory.CreateTab(req))
}

func (h *TabHandler) GetTab(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, ok := h.factory.GetTab(id)
	if !ok {
		notFound(w, "tab", id)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateTab replaces the given top-level fields.
// PATCH /v1/tabs/{id}
func (h *TabHandler) UpdateTab(w http.ResponseWriter, r *http.Request) {
	var req factory.TabUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	cfg, err := h.factory.UpdateTab(chi.URLParam(r, "id"), req)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// DeleteTab removes a tab and its instances. Unknown ids still get 204.
// DELETE /v1/tabs/{id}
func (h *TabHandler) DeleteTab(w http.ResponseWriter, r *http.Request) {
	h.factory.DeleteTab(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// CloneTab derives a new tab from the one in the path.
// POST /v1/tabs/{id}/clone
func (h *TabHandler) CloneTab(w http.ResponseWriter, r *http.Request) {
	var req factory.CloneOptions
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Name == "" || req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "name and displayName are required")
		return
	}
	req.SourceTabID = chi.URLParam(r, "id")
	cfg, err := h.factory.CloneTab(req)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// ExportTab returns the tab's export bundle.
// GET /v1/tabs/{id}/export
func (h *TabHandler) ExportTab(w http.ResponseWriter, r *http.Request) {
	data, err := h.factory.ExportTab(chi.URLParam(r, "id"))
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ImportTab registers the tab carried by an export bundle.
// POST /v1/tabs/import
func (h *TabHandler) ImportTab(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	cfg, err := h.factory.ImportTab(data)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// Components resolves every component role of the tab.
// GET /v1/tabs/{id}/components
func (h *TabHandler) Components(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, ok := h.factory.GetTab(id)
	if !ok {
		notFound(w, "tab", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tabId":      cfg.ID,
		"components": h.resolver.ResolveAll(cfg.ComponentMappings),
	})
}

type validateRequest struct {
	Entity   map[string]any   `json:"entity"`
	Existing []map[string]any `json:"existing,omitempty"`
}

// ValidateEntity fills defaults into an entity and checks it against the
// tab's data config. The entity is not stored.
// POST /v1/tabs/{id}/validate
func (h *TabHandler) ValidateEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, ok := h.factory.GetTab(id)
	if !ok {
		notFound(w, "tab", id)
		return
	}
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Entity == nil {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "entity is required")
		return
	}

	entity := tabconfig.ApplyDefaults(cfg.DataConfig, req.Entity)
	if err := tabconfig.ValidateEntity(cfg.DataConfig, entity, h.validators, req.Existing...); err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "entity": entity})
}
