// Package templates defines tab templates, the named and versioned seed
// configurations new tabs start from, and loads them from CUE and YAML.
package templates

import (
	"github.com/matthewbaird/tabforge/internal/tabconfig"
)

// BaseTemplateID is the template every tab falls back to.
const BaseTemplateID = "characters"

// Categories is the catalog vocabulary for template categories.
var Categories = []string{"core", "characters", "worldbuilding", "story", "custom"}

// Tags is the suggested tag vocabulary.
var Tags = []string{"characters", "core", "people", "antagonists", "romance", "relationships", "dark", "creatures", "factions"}

// Blueprint is the partial configuration a template contributes. Nil parts
// are taken from the base template when a tab is seeded.
type Blueprint struct {
	Description       string                      `json:"description,omitempty"`
	Icon              string                      `json:"icon,omitempty"`
	Color             string                      `json:"color,omitempty"`
	Gradient          string                      `json:"gradient,omitempty"`
	Features          *tabconfig.Features         `json:"features,omitempty"`
	UI                *tabconfig.UIConfig         `json:"ui,omitempty"`
	DataConfig        *tabconfig.DataConfig       `json:"dataConfig,omitempty"`
	ComponentMappings tabconfig.ComponentMappings `json:"componentMappings,omitempty"`
}

// TabTemplate is a catalog entry used to seed new tabs.
type TabTemplate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Version     string    `json:"version"`
	Author      string    `json:"author,omitempty"`
	Popularity  int       `json:"popularity"`
	IsBuiltIn   bool      `json:"isBuiltIn"`
	IsVisible   bool      `json:"isVisible"`
	Blueprint   Blueprint `json:"blueprint"`
}

// Clone returns a deep copy.
func (t TabTemplate) Clone() TabTemplate {
	out := t
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.Blueprint.Features != nil {
		f := t.Blueprint.Features.Clone()
		out.Blueprint.Features = &f
	}
	if t.Blueprint.UI != nil {
		u := t.Blueprint.UI.Clone()
		out.Blueprint.UI = &u
	}
	if t.Blueprint.DataConfig != nil {
		d := t.Blueprint.DataConfig.Clone()
		out.Blueprint.DataConfig = &d
	}
	out.Blueprint.ComponentMappings = t.Blueprint.ComponentMappings.Clone()
	return out
}

// Seed is a fully resolved blueprint.
type Seed struct {
	TemplateID        string
	Description       string
	Icon              string
	Color             string
	Gradient          string
	Features          tabconfig.Features
	UI                tabconfig.UIConfig
	DataConfig        tabconfig.DataConfig
	ComponentMappings tabconfig.ComponentMappings
}

// Resolve fills the gaps in tpl's blueprint from base. base is expected to
// be complete; tpl may equal base.
func Resolve(tpl, base TabTemplate) Seed {
	b, bb := tpl.Blueprint, base.Blueprint
	s := Seed{
		TemplateID:        tpl.ID,
		Description:       firstNonEmpty(b.Description, bb.Description),
		Icon:              firstNonEmpty(b.Icon, bb.Icon),
		Color:             firstNonEmpty(b.Color, bb.Color),
		Gradient:          firstNonEmpty(b.Gradient, bb.Gradient),
		ComponentMappings: bb.ComponentMappings.Clone(),
	}
	switch {
	case b.Features != nil:
		s.Features = b.Features.Clone()
	case bb.Features != nil:
		s.Features = bb.Features.Clone()
	}
	switch {
	case b.UI != nil:
		s.UI = b.UI.Clone()
	case bb.UI != nil:
		s.UI = bb.UI.Clone()
	}
	switch {
	case b.DataConfig != nil:
		s.DataConfig = b.DataConfig.Clone()
	case bb.DataConfig != nil:
		s.DataConfig = bb.DataConfig.Clone()
	}
	if len(b.ComponentMappings) > 0 {
		s.ComponentMappings = b.ComponentMappings.Clone()
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
