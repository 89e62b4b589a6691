package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/tabforge/internal/activity"
	"github.com/matthewbaird/tabforge/internal/signals"
)

// ActivityHandler serves the activity trail recorded for registry changes.
type ActivityHandler struct {
	store activity.Store
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store activity.Store) *ActivityHandler {
	return &ActivityHandler{store: store}
}

// TabActivity returns the chronological trail for one tab.
// GET /v1/tabs/{id}/activity
func (h *ActivityHandler) TabActivity(w http.ResponseWriter, r *http.Request) {
	h.entityActivity(w, r, "tab", chi.URLParam(r, "id"))
}

// InstanceActivity returns the trail for one instance.
// GET /v1/instances/{id}/activity
func (h *ActivityHandler) InstanceActivity(w http.ResponseWriter, r *http.Request) {
	h.entityActivity(w, r, "instance", chi.URLParam(r, "id"))
}

func (h *ActivityHandler) entityActivity(w http.ResponseWriter, r *http.Request, entityType, entityID string) {
	q := r.URL.Query()
	opts := activity.DefaultQueryOptions()
	opts.Since = parseTime(r, "since")
	opts.Until = parseTime(r, "until")
	opts.Categories = splitList(q.Get("categories"))
	if mw := q.Get("min_weight"); mw != "" {
		opts.MinWeight = mw
	}
	opts.Limit = parseLimit(r, opts.Limit, 500)
	opts.Cursor = q.Get("cursor")

	entries, nextCursor, total, err := h.store.QueryByEntity(r.Context(), entityType, entityID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}

	resp := struct {
		Activities []activity.Entry `json:"activities"`
		NextCursor string           `json:"nextCursor,omitempty"`
		TotalCount int              `json:"totalCount"`
		Period     struct {
			Since *time.Time `json:"since,omitempty"`
			Until *time.Time `json:"until,omitempty"`
		} `json:"period"`
	}{
		Activities: entries,
		NextCursor: nextCursor,
		TotalCount: total,
	}
	resp.Period.Since = opts.Since
	resp.Period.Until = opts.Until
	writeJSON(w, http.StatusOK, resp)
}

// TabSummary aggregates a tab's trail over a window, 30 days by default,
// and reports escalations such as configuration churn.
// GET /v1/tabs/{id}/activity/summary
func (h *ActivityHandler) TabSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	until := time.Now()
	since := until.AddDate(0, 0, -30)
	if t := parseTime(r, "since"); t != nil {
		since = *t
	}

	opts := activity.QueryOptions{
		Since:     &since,
		Until:     &until,
		MinWeight: "info",
		Limit:     500,
	}
	entries, _, _, err := h.store.QueryByEntity(r.Context(), "tab", id, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, signals.Aggregate(entries, "tab", id, since, until))
}

// Search finds activity whose summary contains q.
// GET /v1/activity/search?q=
func (h *ActivityHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMS", "q is required")
		return
	}
	opts := activity.DefaultSearchOptions()
	opts.EntityType = q.Get("entity_type")
	opts.Since = parseTime(r, "since")
	opts.Categories = splitList(q.Get("categories"))
	opts.Limit = parseLimit(r, opts.Limit, 100)

	entries, total, err := h.store.Search(r.Context(), query, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUERY_FAILED", err.Error())
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": entries, "totalCount": total})
}
