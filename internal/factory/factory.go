// Package factory owns the tab registry: it creates and clones tab
// configurations, binds them to projects as instances, manages the
// template catalog and moves tabs between environments as export bundles.
//
// Every operation runs under one registry lock, so concurrent callers see
// each operation as atomic. Domain events are recorded after the lock is
// released.
package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matthewbaird/tabforge/internal/event"
	"github.com/matthewbaird/tabforge/internal/metrics"
	"github.com/matthewbaird/tabforge/internal/tabconfig"
	"github.com/matthewbaird/tabforge/internal/templates"
)

// DefaultCharacterTabID is the id of the tab registered at construction.
const DefaultCharacterTabID = "characters"

// Factory creates, clones and stores tab configurations.
type Factory struct {
	log         *zap.Logger
	now         func() time.Time
	strictClone bool
	recorder    event.Recorder
	metrics     *metrics.Metrics
	exportedBy  string
	extra       []templates.TabTemplate

	mu  sync.RWMutex
	reg *registry
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(f *Factory) { f.log = log }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) { f.now = now }
}

// WithStrictClone makes CloneTab return ErrNotFound for an unknown source
// instead of falling back to the base template.
func WithStrictClone() Option {
	return func(f *Factory) { f.strictClone = true }
}

// WithRecorder records a domain event for every registry mutation.
func WithRecorder(r event.Recorder) Option {
	return func(f *Factory) { f.recorder = r }
}

// WithMetrics counts operations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Factory) { f.metrics = m }
}

// WithExportedBy sets metadata.exportedBy in export bundles.
func WithExportedBy(name string) Option {
	return func(f *Factory) { f.exportedBy = name }
}

// WithTemplates registers tpls after the built-in templates.
func WithTemplates(tpls ...templates.TabTemplate) Option {
	return func(f *Factory) { f.extra = append(f.extra, tpls...) }
}

// New builds a factory, registers the built-in templates plus any given
// via WithTemplates, and registers the default Characters tab.
func New(opts ...Option) (*Factory, error) {
	f := &Factory{
		log:        zap.NewNop(),
		now:        time.Now,
		exportedBy: "tabforge",
		reg:        newRegistry(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.Named("factory")

	loader, err := templates.NewLoader()
	if err != nil {
		return nil, err
	}
	builtin, err := loader.Builtin()
	if err != nil {
		return nil, fmt.Errorf("loading built-in templates: %w", err)
	}
	for _, tpl := range append(builtin, f.extra...) {
		if err := checkTemplate(tpl); err != nil {
			return nil, err
		}
		f.reg.templates.put(tpl.ID, tpl.Clone())
	}

	now := f.now()
	seed := f.seed(templates.BaseTemplateID)
	f.reg.tabs.put(DefaultCharacterTabID, tabconfig.TabConfig{
		ID:                DefaultCharacterTabID,
		Name:              DefaultCharacterTabID,
		DisplayName:       "Characters",
		Description:       seed.Description,
		Icon:              seed.Icon,
		Color:             firstOf(seed.Color, tabconfig.DefaultColor),
		Gradient:          seed.Gradient,
		TemplateID:        seed.TemplateID,
		CreatedAt:         now,
		UpdatedAt:         now,
		Features:          seed.Features,
		UI:                seed.UI,
		DataConfig:        seed.DataConfig,
		ComponentMappings: seed.ComponentMappings,
	})
	f.reg.defaultCharacterTabID = DefaultCharacterTabID

	f.log.Info("factory ready",
		zap.Int("templates", f.reg.templates.len()),
		zap.Bool("strict_clone", f.strictClone))
	return f, nil
}

// CreateOptions describes a new tab. Name seeds the id; the overrides are
// applied over the template's blueprint.
type CreateOptions struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	Gradient    string `json:"gradient,omitempty"`
	// TemplateID picks the seeding template; empty means the base template.
	TemplateID string `json:"templateId,omitempty"`

	FeatureOverrides *tabconfig.FeaturePatch    `json:"featureOverrides,omitempty"`
	UIOverrides      *tabconfig.UIPatch         `json:"uiOverrides,omitempty"`
	DataOverrides    *tabconfig.DataConfigPatch `json:"dataOverrides,omitempty"`

	tabconfig.Extensions
}

// CreateTab seeds a tab from a template, applies the overrides and
// registers it. It never fails; empty names yield the id "tab".
func (f *Factory) CreateTab(opts CreateOptions) tabconfig.TabConfig {
	templateID := opts.TemplateID
	if templateID == "" {
		templateID = templates.BaseTemplateID
	}

	f.mu.Lock()
	seed := f.seed(templateID)
	id := f.reg.nextID(opts.Name)
	now := f.now()
	cfg := tabconfig.TabConfig{
		ID:                id,
		Name:              id,
		DisplayName:       firstOf(opts.DisplayName, opts.Name),
		Description:       firstOf(opts.Description, seed.Description),
		Icon:              firstOf(opts.Icon, seed.Icon),
		Color:             firstOf(opts.Color, seed.Color, tabconfig.DefaultColor),
		Gradient:          firstOf(opts.Gradient, seed.Gradient),
		IsCustom:          true,
		TemplateID:        seed.TemplateID,
		CreatedAt:         now,
		UpdatedAt:         now,
		Features:          tabconfig.MergeFeatures(seed.Features, opts.FeatureOverrides),
		UI:                tabconfig.MergeUI(seed.UI, opts.UIOverrides),
		DataConfig:        tabconfig.MergeDataConfig(seed.DataConfig, opts.DataOverrides, opts.Extensions),
		ComponentMappings: seed.ComponentMappings,
	}
	f.reg.tabs.put(id, cfg)
	out := cfg.Clone()
	f.mu.Unlock()

	f.checkDataConfig(out)
	f.observe("create_tab", nil)
	f.record(event.NewTabCreated(event.TabCreatedPayload{
		TabID:       out.ID,
		DisplayName: out.DisplayName,
		TemplateID:  out.TemplateID,
	}))
	return out
}

// CloneOptions describes a clone. TemplateID in the embedded
// CreateOptions is ignored: a clone inherits its source's lineage.
type CloneOptions struct {
	CreateOptions
	SourceTabID string `json:"sourceTabId"`

	// PreserveData set to false drops the source's default values.
	PreserveData *bool `json:"preserveData,omitempty"`
	// PreserveSettings set to false starts features and UI from the base
	// template instead of the source.
	PreserveSettings *bool `json:"preserveSettings,omitempty"`
	// PreserveCustomizations set to false resets component mappings to
	// the base template's.
	PreserveCustomizations *bool `json:"preserveCustomizations,omitempty"`
}

// CloneTab derives a new tab from a registered one. An unknown source
// falls back to the base template unless the factory is strict, in which
// case ErrNotFound is returned.
func (f *Factory) CloneTab(opts CloneOptions) (tabconfig.TabConfig, error) {
	f.mu.Lock()
	src, found := f.reg.tabs.get(opts.SourceTabID)
	if !found {
		if f.strictClone {
			f.mu.Unlock()
			err := fmt.Errorf("%w: tab %q", ErrNotFound, opts.SourceTabID)
			f.observe("clone_tab", err)
			return tabconfig.TabConfig{}, err
		}
		src = f.baseConfig()
	}
	base := f.seed(templates.BaseTemplateID)

	features, ui := src.Features, src.UI
	if isFalse(opts.PreserveSettings) {
		features, ui = base.Features, base.UI
	}

	id := f.reg.nextID(opts.Name)
	now := f.now()
	cfg := src.Clone()
	cfg.ID = id
	cfg.Name = id
	cfg.DisplayName = firstOf(opts.DisplayName, opts.Name)
	cfg.Description = firstOf(opts.Description, src.Description)
	cfg.Icon = firstOf(opts.Icon, src.Icon)
	cfg.Color = firstOf(opts.Color, src.Color)
	cfg.Gradient = firstOf(opts.Gradient, src.Gradient)
	cfg.IsCustom = true
	cfg.ClonedFrom = opts.SourceTabID
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	cfg.Features = tabconfig.MergeFeatures(features, opts.FeatureOverrides)
	cfg.UI = tabconfig.MergeUI(ui, opts.UIOverrides)
	cfg.UI.Icon = cfg.Icon
	cfg.UI.PrimaryColor = cfg.Color
	cfg.UI.IconColor = cfg.Color
	cfg.DataConfig = tabconfig.MergeDataConfig(src.DataConfig, opts.DataOverrides, opts.Extensions)
	if isFalse(opts.PreserveData) {
		cfg.DataConfig.DefaultValues = nil
	}
	if isFalse(opts.PreserveCustomizations) {
		cfg.ComponentMappings = base.ComponentMappings
	}

	f.reg.tabs.put(id, cfg)
	out := cfg.Clone()
	f.mu.Unlock()

	if !found {
		f.log.Warn("clone source not found, using base template",
			zap.String("source", opts.SourceTabID),
			zap.String("tab", out.ID))
	}
	f.checkDataConfig(out)
	f.observe("clone_tab", nil)
	f.record(event.NewTabCloned(event.TabClonedPayload{
		TabID:       out.ID,
		DisplayName: out.DisplayName,
		SourceTabID: opts.SourceTabID,
		FellBack:    !found,
	}))
	return out, nil
}

// seed resolves a template against the base template. An unknown id
// resolves to the base template. Callers hold f.mu.
func (f *Factory) seed(templateID string) templates.Seed {
	base, _ := f.reg.templates.get(templates.BaseTemplateID)
	tpl, ok := f.reg.templates.get(templateID)
	if !ok {
		tpl = base
	}
	return templates.Resolve(tpl, base)
}

// baseConfig renders the base template as an unregistered tab, used as a
// clone source when the requested one is missing. Callers hold f.mu.
func (f *Factory) baseConfig() tabconfig.TabConfig {
	seed := f.seed(templates.BaseTemplateID)
	return tabconfig.TabConfig{
		Name:              templates.BaseTemplateID,
		Description:       seed.Description,
		Icon:              seed.Icon,
		Color:             firstOf(seed.Color, tabconfig.DefaultColor),
		Gradient:          seed.Gradient,
		TemplateID:        seed.TemplateID,
		Features:          seed.Features,
		UI:                seed.UI,
		DataConfig:        seed.DataConfig,
		ComponentMappings: seed.ComponentMappings,
	}
}

// checkDataConfig logs structural problems. They are not fatal: custom
// fields may legitimately reference sections added later.
func (f *Factory) checkDataConfig(cfg tabconfig.TabConfig) {
	if err := tabconfig.Validate(cfg.DataConfig); err != nil {
		f.log.Warn("tab data config has structural problems", zap.String("tab", cfg.ID), zap.Error(err))
	}
}

func (f *Factory) observe(op string, err error) {
	f.metrics.ObserveOperation(op, err)
}

func (f *Factory) record(evts ...event.DomainEvent) {
	if f.recorder == nil {
		return
	}
	for _, evt := range evts {
		evt.OccurredAt = f.now()
		if err := f.recorder.Record(context.Background(), evt); err != nil {
			f.log.Warn("recording event failed", zap.String("type", evt.EventType), zap.Error(err))
		}
	}
}

func isFalse(b *bool) bool {
	return b != nil && !*b
}
