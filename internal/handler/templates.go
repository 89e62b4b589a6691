package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/tabforge/internal/factory"
	"github.com/matthewbaird/tabforge/internal/templates"
)

// TemplateHandler implements HTTP handlers for the template catalog.
type TemplateHandler struct {
	factory *factory.Factory
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(f *factory.Factory) *TemplateHandler {
	return &TemplateHandler{factory: f}
}

// ListTemplates returns visible templates, optionally of one category.
// GET /v1/templates?category=
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": h.factory.GetTemplates(r.URL.Query().Get("category")),
	})
}

func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tpl, ok := h.factory.GetTemplate(id)
	if !ok {
		notFound(w, "template", id)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// RegisterTemplate adds or replaces a template.
// POST /v1/templates
func (h *TemplateHandler) RegisterTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl templates.TabTemplate
	if err := decodeJSON(w, r, &tpl); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if err := h.factory.RegisterTemplate(tpl); err != nil {
		errorToHTTP(w, err)
		return
	}
	stored, _ := h.factory.GetTemplate(tpl.ID)
	writeJSON(w, http.StatusCreated, stored)
}

// Vocabulary returns the category and tag vocabularies.
// GET /v1/templates/vocabulary
func (h *TemplateHandler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": h.factory.Categories(),
		"tags":       h.factory.Tags(),
	})
}
