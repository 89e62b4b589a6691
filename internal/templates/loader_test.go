package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/tabforge/internal/components"
	"github.com/matthewbaird/tabforge/internal/tabconfig"
)

func newLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader()
	require.NoError(t, err)
	return l
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestBuiltin_BaseFirstAndComplete(t *testing.T) {
	tpls, err := newLoader(t).Builtin()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(tpls), 3)

	base := tpls[0]
	assert.Equal(t, BaseTemplateID, base.ID)
	assert.True(t, base.IsBuiltIn)
	assert.True(t, base.IsVisible)
	require.NotNil(t, base.Blueprint.Features)
	require.NotNil(t, base.Blueprint.UI)
	require.NotNil(t, base.Blueprint.DataConfig)

	assert.True(t, base.Blueprint.Features.HasAPIIntegration)
	assert.True(t, base.Blueprint.Features.HasRealTimeUpdates)
	assert.NotEmpty(t, base.Blueprint.Features.SortOptions)
	assert.Equal(t, "character", base.Blueprint.DataConfig.EntityType)
	assert.NoError(t, tabconfig.Validate(*base.Blueprint.DataConfig))
	assert.Equal(t, "AdvancedCharacterManager", base.Blueprint.ComponentMappings[components.RoleManager])

	ids := make([]string, len(tpls))
	for i, tpl := range tpls {
		ids[i] = tpl.ID
		assert.True(t, tpl.IsBuiltIn)
	}
	assert.Contains(t, ids, "villains")
	assert.Contains(t, ids, "romance")
}

func TestLoadFile_YAMLDefaults(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "creatures.yaml", `
id: creatures
name: Creatures
category: worldbuilding
tags: [creatures]
version: 1.0.0
blueprint:
  icon: paw
  color: "#16a34a"
`)
	tpls, err := newLoader(t).LoadFile(p)
	require.NoError(t, err)
	require.Len(t, tpls, 1)

	tpl := tpls[0]
	assert.Equal(t, "creatures", tpl.ID)
	assert.True(t, tpl.IsVisible)
	assert.False(t, tpl.IsBuiltIn)
	assert.Equal(t, 0, tpl.Popularity)
	assert.Equal(t, "#16a34a", tpl.Blueprint.Color)
	assert.Nil(t, tpl.Blueprint.DataConfig)
}

func TestLoadFile_YAMLRejectsSchemaViolations(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bad.yaml", `
- id: Bad_ID
  name: Broken
  category: custom
  tags: []
  version: one
`)
	_, err := newLoader(t).LoadFile(p)
	assert.Error(t, err)
}

func TestLoadFile_CUE(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "factions.cue", `
templates: [{
	id:       "factions"
	name:     "Factions"
	category: "worldbuilding"
	tags: ["factions"]
	version:   "0.2.0"
	isVisible: false
	blueprint: dataConfig: {
		entityType: "faction"
		sections: [{key: "basic", label: "Basics", fields: ["name", "alignment"]}]
		fields: [
			{key: "name", label: "Name", type: "text", section: "basic"},
			{key: "alignment", label: "Alignment", type: "select", section: "basic", options: ["good", "evil"]},
		]
		validation: {requiredFields: ["name"], uniqueFields: []}
		customProperties: []
	}
}]
`)
	tpls, err := newLoader(t).LoadFile(p)
	require.NoError(t, err)
	require.Len(t, tpls, 1)
	assert.False(t, tpls[0].IsVisible)
	require.NotNil(t, tpls[0].Blueprint.DataConfig)
	assert.Len(t, tpls[0].Blueprint.DataConfig.Fields, 2)
}

func TestLoadFile_CUEStructuralError(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "broken.cue", `
templates: [{
	id:       "broken"
	name:     "Broken"
	category: "custom"
	tags: []
	version: "1.0.0"
	blueprint: dataConfig: {
		entityType: "thing"
		sections: []
		fields: [{key: "name", label: "Name", type: "text", section: "nowhere"}]
		validation: {requiredFields: [], uniqueFields: []}
		customProperties: []
	}
}]
`)
	_, err := newLoader(t).LoadFile(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestLoadDir_SkipsOtherFilesAndJoinsErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# templates")
	writeFile(t, dir, "a.yaml", "id: alpha\nname: Alpha\ncategory: custom\ntags: []\nversion: 1.0.0\nblueprint: {}\n")
	writeFile(t, dir, "b.yml", "id: beta\nname: Beta\ncategory: custom\ntags: []\nversion: nope\nblueprint: {}\n")

	tpls, err := newLoader(t).LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.yml")
	require.Len(t, tpls, 1)
	assert.Equal(t, "alpha", tpls[0].ID)
}

func TestResolve_FillsFromBase(t *testing.T) {
	tpls, err := newLoader(t).Builtin()
	require.NoError(t, err)
	base := tpls[0]

	var villains TabTemplate
	for _, tpl := range tpls {
		if tpl.ID == "villains" {
			villains = tpl
		}
	}
	require.Equal(t, "villains", villains.ID)

	seed := Resolve(villains, base)
	assert.Equal(t, "villains", seed.TemplateID)
	assert.Equal(t, "skull", seed.Icon)
	assert.Equal(t, "#dc2626", seed.UI.PrimaryColor)
	assert.Equal(t, *base.Blueprint.Features, seed.Features)
	assert.Equal(t, *base.Blueprint.DataConfig, seed.DataConfig)
	assert.Equal(t, base.Blueprint.ComponentMappings, seed.ComponentMappings)

	seed.DataConfig.Fields[0].Label = "changed"
	assert.NotEqual(t, "changed", base.Blueprint.DataConfig.Fields[0].Label)
}

func TestTemplateClone(t *testing.T) {
	tpls, err := newLoader(t).Builtin()
	require.NoError(t, err)
	cp := tpls[0].Clone()
	require.Equal(t, tpls[0], cp)

	cp.Tags[0] = "x"
	cp.Blueprint.Features.SortOptions[0].Key = "x"
	assert.NotEqual(t, "x", tpls[0].Tags[0])
	assert.NotEqual(t, "x", tpls[0].Blueprint.Features.SortOptions[0].Key)
}
