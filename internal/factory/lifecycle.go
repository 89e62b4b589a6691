package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/matthewbaird/tabforge/internal/event"
	"github.com/matthewbaird/tabforge/internal/tabconfig"
)

// TabUpdate lists the top-level fields UpdateTab may replace. Nil fields
// are left alone; a non-nil field replaces the stored value wholesale.
type TabUpdate struct {
	DisplayName       *string                     `json:"displayName,omitempty"`
	Description       *string                     `json:"description,omitempty"`
	Icon              *string                     `json:"icon,omitempty"`
	Color             *string                     `json:"color,omitempty"`
	Gradient          *string                     `json:"gradient,omitempty"`
	Features          *tabconfig.Features         `json:"features,omitempty"`
	UI                *tabconfig.UIConfig         `json:"ui,omitempty"`
	DataConfig        *tabconfig.DataConfig       `json:"dataConfig,omitempty"`
	ComponentMappings tabconfig.ComponentMappings `json:"componentMappings,omitempty"`
}

// GetTab returns a copy of the registered tab.
func (f *Factory) GetTab(id string) (tabconfig.TabConfig, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	cfg, ok := f.reg.tabs.get(id)
	if !ok {
		return tabconfig.TabConfig{}, false
	}
	return cfg.Clone(), true
}

// ListTabs returns copies of every tab in registration order.
func (f *Factory) ListTabs() []tabconfig.TabConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]tabconfig.TabConfig, 0, f.reg.tabs.len())
	f.reg.tabs.each(func(_ string, cfg tabconfig.TabConfig) {
		out = append(out, cfg.Clone())
	})
	return out
}

// DefaultCharacterTabID returns the id of the default Characters tab, or
// "" once it has been deleted.
func (f *Factory) DefaultCharacterTabID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.reg.defaultCharacterTabID
}

// UpdateTab applies u to the stored tab and refreshes UpdatedAt.
// Instances keep their copy until RefreshInstance.
func (f *Factory) UpdateTab(id string, u TabUpdate) (tabconfig.TabConfig, error) {
	f.mu.Lock()
	cfg, ok := f.reg.tabs.get(id)
	if !ok {
		f.mu.Unlock()
		err := fmt.Errorf("%w: tab %q", ErrNotFound, id)
		f.observe("update_tab", err)
		return tabconfig.TabConfig{}, err
	}

	var changed []string
	set := func(name string, dst *string, v *string) {
		if v != nil {
			*dst = *v
			changed = append(changed, name)
		}
	}
	set("displayName", &cfg.DisplayName, u.DisplayName)
	set("description", &cfg.Description, u.Description)
	set("icon", &cfg.Icon, u.Icon)
	set("color", &cfg.Color, u.Color)
	set("gradient", &cfg.Gradient, u.Gradient)
	if u.Features != nil {
		cfg.Features = u.Features.Clone()
		changed = append(changed, "features")
	}
	if u.UI != nil {
		cfg.UI = u.UI.Clone()
		changed = append(changed, "ui")
	}
	if u.DataConfig != nil {
		cfg.DataConfig = u.DataConfig.Clone()
		changed = append(changed, "dataConfig")
	}
	if u.ComponentMappings != nil {
		cfg.ComponentMappings = u.ComponentMappings.Clone()
		changed = append(changed, "componentMappings")
	}
	cfg.UpdatedAt = f.now()
	f.reg.tabs.put(id, cfg)
	out := cfg.Clone()
	f.mu.Unlock()

	if u.DataConfig != nil {
		f.checkDataConfig(out)
	}
	f.observe("update_tab", nil)
	f.record(event.NewTabUpdated(event.TabUpdatedPayload{TabID: id, Fields: changed}))
	return out, nil
}

// DeleteTab removes the tab and every instance bound to it. Unknown ids
// are a no-op.
func (f *Factory) DeleteTab(id string) {
	f.mu.Lock()
	if !f.reg.tabs.remove(id) {
		f.mu.Unlock()
		return
	}
	instanceIDs := f.reg.instancesOf(id)
	for _, iid := range instanceIDs {
		f.reg.instances.remove(iid)
	}
	if f.reg.defaultCharacterTabID == id {
		f.reg.defaultCharacterTabID = ""
	}
	f.mu.Unlock()

	f.log.Info("tab deleted", zap.String("tab", id), zap.Int("instances", len(instanceIDs)))
	f.observe("delete_tab", nil)
	f.record(event.NewTabDeleted(event.TabDeletedPayload{TabID: id, InstanceIDs: instanceIDs}))
}
