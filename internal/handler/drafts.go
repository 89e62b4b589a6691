package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/tabforge/internal/drafts"
)

// DraftHandler persists per-project entity drafts.
type DraftHandler struct {
	store drafts.Store
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(store drafts.Store) *DraftHandler {
	return &DraftHandler{store: store}
}

func (h *DraftHandler) key(w http.ResponseWriter, r *http.Request) (string, bool) {
	projectID := chi.URLParam(r, "projectID")
	v, err := drafts.ParseVersion(r.URL.Query().Get("version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_VERSION", err.Error())
		return "", false
	}
	return drafts.Key(projectID, v), true
}

// GET /v1/projects/{projectID}/drafts
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	d, err := h.store.Load(r.Context(), key)
	if errors.Is(err, drafts.ErrNotFound) {
		notFound(w, "draft", key)
		return
	}
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// PUT /v1/projects/{projectID}/drafts
func (h *DraftHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	var data json.RawMessage
	if err := decodeJSON(w, r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	d, err := h.store.Save(r.Context(), key, data)
	if err != nil {
		errorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DELETE /v1/projects/{projectID}/drafts
func (h *DraftHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), key); err != nil {
		errorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
