package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthewbaird/tabforge/internal/activity"
	"github.com/matthewbaird/tabforge/internal/drafts"
	"github.com/matthewbaird/tabforge/internal/event"
	"github.com/matthewbaird/tabforge/internal/factory"
	"github.com/matthewbaird/tabforge/internal/metrics"
	"github.com/matthewbaird/tabforge/internal/tabconfig"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := activity.NewMemoryStore()
	m := metrics.New()
	f, err := factory.New(
		factory.WithRecorder(event.NewActivityRecorder(store)),
		factory.WithMetrics(m),
	)
	require.NoError(t, err)
	m.TrackRegistry(f.Count)

	srv := httptest.NewServer(NewRouter(Config{
		Log:      zap.NewNop(),
		Metrics:  m,
		Factory:  f,
		Activity: store,
		Drafts:   drafts.NewMemoryStore(0),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestTabs_CreateGetList(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/v1/tabs", map[string]any{
		"name":        "Villains",
		"displayName": "Villains",
		"templateId":  "villains",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[tabconfig.TabConfig](t, body)
	assert.Equal(t, "villains", created.ID)
	assert.True(t, created.IsCustom)

	resp, body = do(t, srv, http.MethodGet, "/v1/tabs/villains", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Villains", decode[tabconfig.TabConfig](t, body).DisplayName)

	resp, body = do(t, srv, http.MethodGet, "/v1/tabs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Tabs       []tabconfig.TabConfig `json:"tabs"`
		DefaultTab string                `json:"defaultCharacterTabId"`
	}](t, body)
	require.Len(t, list.Tabs, 2)
	assert.Equal(t, "characters", list.Tabs[0].ID)
	assert.Equal(t, "characters", list.DefaultTab)

	resp, _ = do(t, srv, http.MethodPost, "/v1/tabs", map[string]any{"displayName": "No name"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, body = do(t, srv, http.MethodPost, "/v1/tabs", map[string]any{"name": "No display"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_PARAMS", decode[map[string]string](t, body)["code"])

	resp, body = do(t, srv, http.MethodGet, "/v1/tabs/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[map[string]string](t, body)["code"])
}

func TestTabs_UpdateUnknownIs404(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, http.MethodPatch, "/v1/tabs/ghost", map[string]any{"icon": "skull"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[map[string]string](t, body)["code"])
}

func TestTabs_UpdateAndDelete(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPatch, "/v1/tabs/characters", map[string]any{"icon": "crown"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "crown", decode[tabconfig.TabConfig](t, body).Icon)

	resp, _ = do(t, srv, http.MethodDelete, "/v1/tabs/characters", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodDelete, "/v1/tabs/characters", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/v1/tabs/characters", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTabs_Clone(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/v1/tabs/characters/clone", map[string]any{
		"name":         "Heroes",
		"displayName":  "Heroes",
		"color":        "#112233",
		"preserveData": false,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	clone := decode[tabconfig.TabConfig](t, body)
	assert.Equal(t, "heroes", clone.ID)
	assert.Equal(t, "characters", clone.ClonedFrom)
	assert.Equal(t, "#112233", clone.UI.PrimaryColor)

	resp, body = do(t, srv, http.MethodPost, "/v1/tabs/characters/clone", map[string]any{"name": "Nameless"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_PARAMS", decode[map[string]string](t, body)["code"])
}

func TestTabs_ExportImport(t *testing.T) {
	srv := newTestServer(t)

	resp, bundle := do(t, srv, http.MethodGet, "/v1/tabs/characters/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	meta := decode[factory.ExportBundle](t, bundle).Metadata
	assert.Equal(t, factory.ExportVersion, meta.Version)

	resp, body := do(t, srv, http.MethodPost, "/v1/tabs/import", bundle)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	imported := decode[tabconfig.TabConfig](t, body)
	assert.Equal(t, "characters-1", imported.ID)
	assert.True(t, imported.IsCustom)

	resp, body = do(t, srv, http.MethodPost, "/v1/tabs/import", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MALFORMED_INPUT", decode[map[string]string](t, body)["code"])

	resp, _ = do(t, srv, http.MethodGet, "/v1/tabs/ghost/export", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTabs_Components(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, srv, http.MethodGet, "/v1/tabs/characters/components", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[struct {
		TabID      string `json:"tabId"`
		Components []struct {
			Role           string `json:"role"`
			Implementation string `json:"implementation"`
		} `json:"components"`
	}](t, body)
	assert.Equal(t, "characters", got.TabID)
	assert.NotEmpty(t, got.Components)
	for _, c := range got.Components {
		assert.NotEmpty(t, c.Implementation, c.Role)
	}
}

func TestTabs_Validate(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/v1/tabs/characters/validate", map[string]any{
		"entity": map[string]any{"role": "mentor"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
	failed := decode[struct {
		Code   string                 `json:"code"`
		Fields []tabconfig.FieldError `json:"fields"`
	}](t, body)
	assert.Equal(t, "VALIDATION_ERROR", failed.Code)
	require.NotEmpty(t, failed.Fields)
	assert.Equal(t, "name", failed.Fields[0].Field)

	resp, body = do(t, srv, http.MethodPost, "/v1/tabs/characters/validate", map[string]any{
		"entity": map[string]any{"name": "Vex", "role": "mentor"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, true, decode[map[string]any](t, body)["valid"])
}

func TestInstances_Lifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/v1/tabs/characters/instances", map[string]any{"projectId": "p1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	inst := decode[factory.TabInstance](t, body)
	assert.Equal(t, "characters-p1", inst.ID)

	resp, body = do(t, srv, http.MethodPost, "/v1/instances/characters-p1/entity-count", map[string]any{"count": 7})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 7, decode[factory.TabInstance](t, body).EntityCount)

	resp, _ = do(t, srv, http.MethodPost, "/v1/instances/characters-p1/entity-count", map[string]any{"count": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, "/v1/instances/characters-p1/deactivate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[factory.TabInstance](t, body).IsActive)

	resp, _ = do(t, srv, http.MethodPost, "/v1/instances/characters-p1/touch", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodPost, "/v1/instances/characters-p1/refresh", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/v1/projects/p1/instances", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[map[string][]factory.TabInstance](t, body)
	require.Len(t, list["instances"], 1)

	resp, _ = do(t, srv, http.MethodPost, "/v1/instances/ghost/touch", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/v1/tabs/ghost/instances", map[string]any{"projectId": "p1"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTemplates(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/v1/templates?category=characters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[map[string][]map[string]any](t, body)
	require.NotEmpty(t, list["templates"])
	for _, tpl := range list["templates"] {
		assert.Equal(t, "characters", tpl["category"])
	}

	resp, body = do(t, srv, http.MethodPost, "/v1/templates", map[string]any{
		"id":        "creatures",
		"name":      "Creatures",
		"category":  "worldbuilding",
		"tags":      []string{"creatures"},
		"version":   "1.0.0",
		"isVisible": true,
		"blueprint": map[string]any{"icon": "paw"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = do(t, srv, http.MethodGet, "/v1/templates/creatures", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, "/v1/templates", map[string]any{"name": "no id"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = do(t, srv, http.MethodGet, "/v1/templates/vocabulary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode[map[string][]string](t, body)["categories"], "worldbuilding")
}

func TestDrafts(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, srv, http.MethodGet, "/v1/projects/p1/drafts?version=v2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := do(t, srv, http.MethodPut, "/v1/projects/p1/drafts?version=v2", map[string]any{"name": "Vex"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "character-draft-v2-p1", decode[drafts.Draft](t, body).Key)

	resp, body = do(t, srv, http.MethodGet, "/v1/projects/p1/drafts?version=v2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"name":"Vex"}`, string(decode[drafts.Draft](t, body).Data))

	// v1 drafts live under a different key.
	resp, _ = do(t, srv, http.MethodGet, "/v1/projects/p1/drafts", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/v1/projects/p1/drafts?version=v9", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodDelete, "/v1/projects/p1/drafts?version=v2", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodGet, "/v1/projects/p1/drafts?version=v2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestActivity_RecordsTabChanges(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/v1/tabs", map[string]any{"name": "Villains", "displayName": "Villains", "templateId": "villains"})
	do(t, srv, http.MethodPatch, "/v1/tabs/villains", map[string]any{"icon": "skull"})

	resp, body := do(t, srv, http.MethodGet, "/v1/tabs/villains/activity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[struct {
		Activities []activity.Entry `json:"activities"`
		TotalCount int              `json:"totalCount"`
	}](t, body)
	assert.Equal(t, 2, got.TotalCount)
	require.Len(t, got.Activities, 2)
	types := []string{got.Activities[0].EventType, got.Activities[1].EventType}
	assert.ElementsMatch(t, []string{"tab_created", "tab_updated"}, types)

	resp, body = do(t, srv, http.MethodGet, "/v1/activity/search?q=villains", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotZero(t, decode[map[string]any](t, body)["totalCount"])

	resp, _ = do(t, srv, http.MethodGet, "/v1/activity/search", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodGet, "/v1/tabs", nil)

	resp, body := do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `tabforge_registry_entries{kind="tabs"} 1`)
	assert.Contains(t, string(body), `route="/v1/tabs"`)
}

func TestActivity_Summary(t *testing.T) {
	srv := newTestServer(t)
	for _, icon := range []string{"a", "b", "c", "d", "e"} {
		resp, _ := do(t, srv, http.MethodPatch, "/v1/tabs/characters", map[string]any{"icon": icon})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := do(t, srv, http.MethodGet, "/v1/tabs/characters/activity/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	got := decode[struct {
		Total       int    `json:"total"`
		Status      string `json:"status"`
		Escalations []struct {
			Rule struct {
				ID string `json:"id"`
			} `json:"rule"`
		} `json:"escalations"`
	}](t, body)
	assert.Equal(t, 5, got.Total)
	assert.Equal(t, "churning", got.Status)
	require.Len(t, got.Escalations, 1)
	assert.Equal(t, "config_churn", got.Escalations[0].Rule.ID)
}
