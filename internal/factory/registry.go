package factory

import (
	"slices"
	"strconv"

	"github.com/matthewbaird/tabforge/internal/tabconfig"
	"github.com/matthewbaird/tabforge/internal/templates"
)

// ordered is a map that remembers insertion order. Overwriting a key keeps
// its original position.
type ordered[V any] struct {
	items map[string]V
	order []string
}

func newOrdered[V any]() *ordered[V] {
	return &ordered[V]{items: make(map[string]V)}
}

func (o *ordered[V]) get(id string) (V, bool) {
	v, ok := o.items[id]
	return v, ok
}

func (o *ordered[V]) has(id string) bool {
	_, ok := o.items[id]
	return ok
}

// put stores v and reports whether an entry was replaced.
func (o *ordered[V]) put(id string, v V) bool {
	_, replaced := o.items[id]
	if !replaced {
		o.order = append(o.order, id)
	}
	o.items[id] = v
	return replaced
}

func (o *ordered[V]) remove(id string) bool {
	if _, ok := o.items[id]; !ok {
		return false
	}
	delete(o.items, id)
	o.order = slices.DeleteFunc(o.order, func(k string) bool { return k == id })
	return true
}

// each calls fn for every entry in insertion order.
func (o *ordered[V]) each(fn func(id string, v V)) {
	for _, id := range o.order {
		fn(id, o.items[id])
	}
}

func (o *ordered[V]) len() int { return len(o.items) }

// registry holds everything the factory owns. It is guarded by
// Factory.mu; none of its methods lock.
type registry struct {
	tabs      *ordered[tabconfig.TabConfig]
	instances *ordered[TabInstance]
	templates *ordered[templates.TabTemplate]

	defaultCharacterTabID string
}

func newRegistry() *registry {
	return &registry{
		tabs:      newOrdered[tabconfig.TabConfig](),
		instances: newOrdered[TabInstance](),
		templates: newOrdered[templates.TabTemplate](),
	}
}

// nextID slugifies name and appends -1, -2, … until the id is free.
func (r *registry) nextID(name string) string {
	slug := tabconfig.Slugify(name)
	id := slug
	for i := 1; r.tabs.has(id); i++ {
		id = slug + "-" + strconv.Itoa(i)
	}
	return id
}

// instancesOf returns the ids of every instance bound to tabID.
func (r *registry) instancesOf(tabID string) []string {
	var ids []string
	r.instances.each(func(id string, inst TabInstance) {
		if inst.ConfigID == tabID {
			ids = append(ids, id)
		}
	})
	return ids
}
