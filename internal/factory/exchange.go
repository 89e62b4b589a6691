package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matthewbaird/tabforge/internal/event"
	"github.com/matthewbaird/tabforge/internal/tabconfig"
	"github.com/matthewbaird/tabforge/internal/templates"
)

// ExportVersion is the bundle format version. It is not checked on import.
const ExportVersion = "1.0.0"

// ExportBundle is the serialized form of a tab.
type ExportBundle struct {
	Config    *tabconfig.TabConfig    `json:"config"`
	Instances []TabInstance           `json:"instances"`
	Templates []templates.TabTemplate `json:"templates"`
	Metadata  ExportMetadata          `json:"metadata"`
}

// ExportMetadata describes where and when a bundle was produced.
type ExportMetadata struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	ExportedBy string    `json:"exportedBy"`
}

// ExportTab serializes the tab, its instances and, when it is not built
// in, the template that seeded it.
func (f *Factory) ExportTab(id string) ([]byte, error) {
	f.mu.RLock()
	cfg, ok := f.reg.tabs.get(id)
	if !ok {
		f.mu.RUnlock()
		err := fmt.Errorf("%w: tab %q", ErrNotFound, id)
		f.observe("export_tab", err)
		return nil, err
	}
	cfg = cfg.Clone()
	bundle := ExportBundle{
		Config:    &cfg,
		Instances: []TabInstance{},
		Templates: []templates.TabTemplate{},
		Metadata: ExportMetadata{
			Version:    ExportVersion,
			ExportedAt: f.now(),
			ExportedBy: f.exportedBy,
		},
	}
	f.reg.instances.each(func(_ string, inst TabInstance) {
		if inst.ConfigID == id {
			bundle.Instances = append(bundle.Instances, inst.Clone())
		}
	})
	if tpl, ok := f.reg.templates.get(cfg.TemplateID); ok && !tpl.IsBuiltIn {
		bundle.Templates = append(bundle.Templates, tpl.Clone())
	}
	f.mu.RUnlock()

	out, err := json.MarshalIndent(bundle, "", "  ")
	f.observe("export_tab", err)
	return out, err
}

// ImportTab registers the tab carried by an export bundle under a fresh id
// with fresh timestamps. Bundled templates that are not registered yet are
// registered; instances are not imported since project ids are local to
// the exporting environment.
func (f *Factory) ImportTab(data []byte) (tabconfig.TabConfig, error) {
	var bundle ExportBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		err = fmt.Errorf("%w: %v", ErrMalformedInput, err)
		f.observe("import_tab", err)
		return tabconfig.TabConfig{}, err
	}
	if bundle.Config == nil {
		err := fmt.Errorf("%w: bundle has no config", ErrMalformedInput)
		f.observe("import_tab", err)
		return tabconfig.TabConfig{}, err
	}
	for _, tpl := range bundle.Templates {
		if err := checkTemplate(tpl); err != nil {
			err = fmt.Errorf("%w: bundled template: %v", ErrMalformedInput, err)
			f.observe("import_tab", err)
			return tabconfig.TabConfig{}, err
		}
	}

	imported := *bundle.Config
	f.mu.Lock()
	var added []string
	for _, tpl := range bundle.Templates {
		if f.reg.templates.has(tpl.ID) {
			continue
		}
		tpl.IsBuiltIn = false
		f.reg.templates.put(tpl.ID, tpl)
		added = append(added, tpl.ID)
	}

	id := f.reg.nextID(firstOf(imported.Name, imported.DisplayName, imported.ID))
	now := f.now()
	cfg := imported.Clone()
	cfg.ID = id
	cfg.Name = id
	cfg.DisplayName = firstOf(cfg.DisplayName, id)
	cfg.IsCustom = true
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	if cfg.ComponentMappings == nil {
		cfg.ComponentMappings = f.seed(templates.BaseTemplateID).ComponentMappings
	}
	f.reg.tabs.put(id, cfg)
	out := cfg.Clone()
	f.mu.Unlock()

	f.log.Info("tab imported",
		zap.String("tab", out.ID),
		zap.String("exported_id", imported.ID),
		zap.Strings("templates", added))
	f.checkDataConfig(out)
	f.observe("import_tab", nil)

	evts := make([]event.DomainEvent, 0, len(added)+1)
	for _, tid := range added {
		tpl := findTemplate(bundle.Templates, tid)
		evts = append(evts, event.NewTemplateRegistered(event.TemplateRegisteredPayload{
			TemplateID: tid,
			Category:   tpl.Category,
			Version:    tpl.Version,
		}))
	}
	evts = append(evts, event.NewTabImported(event.TabImportedPayload{
		TabID:       out.ID,
		ExportedID:  imported.ID,
		TemplateIDs: added,
	}))
	f.record(evts...)
	return out, nil
}

func findTemplate(tpls []templates.TabTemplate, id string) templates.TabTemplate {
	for _, tpl := range tpls {
		if tpl.ID == id {
			return tpl
		}
	}
	return templates.TabTemplate{}
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
