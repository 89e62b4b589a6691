package factory

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/matthewbaird/tabforge/internal/event"
	"github.com/matthewbaird/tabforge/internal/tabconfig"
	"github.com/matthewbaird/tabforge/internal/templates"
)

// RegisterTemplate inserts or overwrites a template by id. An overwritten
// template keeps its catalog position.
func (f *Factory) RegisterTemplate(tpl templates.TabTemplate) error {
	if err := checkTemplate(tpl); err != nil {
		f.observe("register_template", err)
		return err
	}
	f.checkTemplateData(tpl)

	f.mu.Lock()
	replaced := f.reg.templates.put(tpl.ID, tpl.Clone())
	f.mu.Unlock()

	f.observe("register_template", nil)
	f.record(event.NewTemplateRegistered(event.TemplateRegisteredPayload{
		TemplateID: tpl.ID,
		Category:   tpl.Category,
		Version:    tpl.Version,
		Replaced:   replaced,
	}))
	return nil
}

// GetTemplates returns the visible templates in registration order,
// limited to category when it is non-empty.
func (f *Factory) GetTemplates(category string) []templates.TabTemplate {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := []templates.TabTemplate{}
	f.reg.templates.each(func(_ string, tpl templates.TabTemplate) {
		if !tpl.IsVisible {
			return
		}
		if category != "" && tpl.Category != category {
			return
		}
		out = append(out, tpl.Clone())
	})
	return out
}

// GetTemplate returns a registered template, visible or not.
func (f *Factory) GetTemplate(id string) (templates.TabTemplate, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	tpl, ok := f.reg.templates.get(id)
	if !ok {
		return templates.TabTemplate{}, false
	}
	return tpl.Clone(), true
}

// Categories returns the category vocabulary followed by any category
// used by a registered template that is not part of it.
func (f *Factory) Categories() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := slices.Clone(templates.Categories)
	f.reg.templates.each(func(_ string, tpl templates.TabTemplate) {
		if tpl.Category != "" && !slices.Contains(out, tpl.Category) {
			out = append(out, tpl.Category)
		}
	})
	return out
}

// Tags returns the tag vocabulary extended the same way as Categories.
func (f *Factory) Tags() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := slices.Clone(templates.Tags)
	f.reg.templates.each(func(_ string, tpl templates.TabTemplate) {
		for _, tag := range tpl.Tags {
			if !slices.Contains(out, tag) {
				out = append(out, tag)
			}
		}
	})
	return out
}

// checkTemplate rejects templates the registry cannot seed from. The base
// template must be complete because every other template is resolved
// against it.
func checkTemplate(tpl templates.TabTemplate) error {
	if tpl.ID == "" {
		return fmt.Errorf("%w: template id is required", ErrMalformedInput)
	}
	bp := tpl.Blueprint
	if tpl.ID == templates.BaseTemplateID && (bp.Features == nil || bp.UI == nil || bp.DataConfig == nil) {
		return fmt.Errorf("%w: base template %q must define features, ui and dataConfig", ErrMalformedInput, tpl.ID)
	}
	return nil
}

// checkTemplateData logs structural problems in a template's data config
// the same way checkDataConfig does for tabs.
func (f *Factory) checkTemplateData(tpl templates.TabTemplate) {
	if tpl.Blueprint.DataConfig == nil {
		return
	}
	if err := tabconfig.Validate(*tpl.Blueprint.DataConfig); err != nil {
		f.log.Warn("template data config has structural problems", zap.String("template", tpl.ID), zap.Error(err))
	}
}
