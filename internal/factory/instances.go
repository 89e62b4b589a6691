package factory

import (
	"fmt"
	"time"

	"github.com/matthewbaird/tabforge/internal/event"
	"github.com/matthewbaird/tabforge/internal/tabconfig"
)

// TabInstance binds a tab configuration to a project. Config is a copy
// taken when the instance was created or last refreshed. PreloadData tells
// clients to fetch the tab's entities when the project opens.
type TabInstance struct {
	ID               string              `json:"id"`
	ConfigID         string              `json:"configId"`
	ProjectID        string              `json:"projectId"`
	Config           tabconfig.TabConfig `json:"config"`
	IsActive         bool                `json:"isActive"`
	LastAccessed     time.Time           `json:"lastAccessed"`
	EntityCount      int                 `json:"entityCount"`
	LastEntityUpdate *time.Time          `json:"lastEntityUpdate,omitempty"`
	CacheKey         string              `json:"cacheKey"`
	PreloadData      bool                `json:"preloadData"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// Clone returns a deep copy.
func (i TabInstance) Clone() TabInstance {
	out := i
	out.Config = i.Config.Clone()
	if i.LastEntityUpdate != nil {
		t := *i.LastEntityUpdate
		out.LastEntityUpdate = &t
	}
	return out
}

// InstanceID returns the deterministic instance id for a tab and project.
func InstanceID(configID, projectID string) string {
	return configID + "-" + projectID
}

func cacheKey(configID, projectID string, at time.Time) string {
	return fmt.Sprintf("%s:%s:%d", configID, projectID, at.UnixMilli())
}

// CreateTabInstance binds cfg to projectID. Calling it again for the same
// pair overwrites the previous instance.
func (f *Factory) CreateTabInstance(cfg tabconfig.TabConfig, projectID string) TabInstance {
	now := f.now()
	inst := TabInstance{
		ID:           InstanceID(cfg.ID, projectID),
		ConfigID:     cfg.ID,
		ProjectID:    projectID,
		Config:       cfg.Clone(),
		IsActive:     true,
		LastAccessed: now,
		CacheKey:     cacheKey(cfg.ID, projectID, now),
		PreloadData:  true,
		CreatedAt:    now,
	}

	f.mu.Lock()
	f.reg.instances.put(inst.ID, inst)
	out := inst.Clone()
	f.mu.Unlock()

	f.observe("create_instance", nil)
	f.record(event.NewInstanceCreated(event.InstancePayload{
		InstanceID: out.ID,
		TabID:      out.ConfigID,
		ProjectID:  out.ProjectID,
		CacheKey:   out.CacheKey,
	}))
	return out
}

// GetTabInstance returns a copy of the instance.
func (f *Factory) GetTabInstance(id string) (TabInstance, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	inst, ok := f.reg.instances.get(id)
	if !ok {
		return TabInstance{}, false
	}
	return inst.Clone(), true
}

// InstancesForTab returns the instances bound to tabID in creation order.
func (f *Factory) InstancesForTab(tabID string) []TabInstance {
	return f.instancesWhere(func(i TabInstance) bool { return i.ConfigID == tabID })
}

// InstancesForProject returns the instances bound to projectID in creation order.
func (f *Factory) InstancesForProject(projectID string) []TabInstance {
	return f.instancesWhere(func(i TabInstance) bool { return i.ProjectID == projectID })
}

func (f *Factory) instancesWhere(match func(TabInstance) bool) []TabInstance {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := []TabInstance{}
	f.reg.instances.each(func(_ string, inst TabInstance) {
		if match(inst) {
			out = append(out, inst.Clone())
		}
	})
	return out
}

// TouchInstance refreshes LastAccessed.
func (f *Factory) TouchInstance(id string) (TabInstance, error) {
	return f.mutateInstance("touch_instance", id, func(inst *TabInstance, now time.Time) {
		inst.LastAccessed = now
	})
}

// RecordEntityCount stores the number of entities the instance manages.
func (f *Factory) RecordEntityCount(id string, count int) (TabInstance, error) {
	return f.mutateInstance("record_entity_count", id, func(inst *TabInstance, now time.Time) {
		inst.EntityCount = count
		inst.LastEntityUpdate = &now
	})
}

// SetInstanceActive marks the instance active or inactive.
func (f *Factory) SetInstanceActive(id string, active bool) (TabInstance, error) {
	return f.mutateInstance("set_instance_active", id, func(inst *TabInstance, _ time.Time) {
		inst.IsActive = active
	})
}

// RefreshInstance re-copies the currently registered configuration into
// the instance and issues a new cache key. It is the only way an instance
// observes edits made after it was created.
func (f *Factory) RefreshInstance(id string) (TabInstance, error) {
	f.mu.Lock()
	inst, ok := f.reg.instances.get(id)
	if !ok {
		f.mu.Unlock()
		err := fmt.Errorf("%w: instance %q", ErrNotFound, id)
		f.observe("refresh_instance", err)
		return TabInstance{}, err
	}
	cfg, ok := f.reg.tabs.get(inst.ConfigID)
	if !ok {
		f.mu.Unlock()
		err := fmt.Errorf("%w: tab %q of instance %q", ErrNotFound, inst.ConfigID, id)
		f.observe("refresh_instance", err)
		return TabInstance{}, err
	}
	now := f.now()
	inst.Config = cfg.Clone()
	inst.LastAccessed = now
	inst.CacheKey = cacheKey(inst.ConfigID, inst.ProjectID, now)
	f.reg.instances.put(id, inst)
	out := inst.Clone()
	f.mu.Unlock()

	f.observe("refresh_instance", nil)
	f.record(event.NewInstanceRefreshed(event.InstancePayload{
		InstanceID: out.ID,
		TabID:      out.ConfigID,
		ProjectID:  out.ProjectID,
		CacheKey:   out.CacheKey,
	}))
	return out, nil
}

func (f *Factory) mutateInstance(op, id string, fn func(inst *TabInstance, now time.Time)) (TabInstance, error) {
	f.mu.Lock()
	inst, ok := f.reg.instances.get(id)
	if !ok {
		f.mu.Unlock()
		err := fmt.Errorf("%w: instance %q", ErrNotFound, id)
		f.observe(op, err)
		return TabInstance{}, err
	}
	fn(&inst, f.now())
	f.reg.instances.put(id, inst)
	out := inst.Clone()
	f.mu.Unlock()

	f.observe(op, nil)
	return out, nil
}

// Count returns the number of registry entries of kind "tabs",
// "instances" or "templates".
func (f *Factory) Count(kind string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	switch kind {
	case "tabs":
		return f.reg.tabs.len()
	case "instances":
		return f.reg.instances.len()
	case "templates":
		return f.reg.templates.len()
	default:
		return 0
	}
}
