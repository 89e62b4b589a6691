// Package components maps abstract UI roles named in a tab's component
// mappings to the implementations a renderer knows how to mount.
//
// Mappings are opaque strings as far as the factory is concerned. The
// Resolver is the one place that interprets them: a name that was never
// registered for a role resolves to that role's default.
package components

import (
	"sort"
	"sync"
)

// Role is a UI slot a tab can bind an implementation to.
type Role string

const (
	RoleManager        Role = "manager"
	RoleCreationLaunch Role = "creationLaunch"
	RoleGuidedCreation Role = "guidedCreation"
	RoleTemplates      Role = "templates"
	RoleAIGeneration   Role = "aiGeneration"
	RoleCard           Role = "card"
	RoleDetail         Role = "detail"
	RoleRelationships  Role = "relationships"
)

// Roles lists every known role in display order.
var Roles = []Role{
	RoleManager,
	RoleCreationLaunch,
	RoleGuidedCreation,
	RoleTemplates,
	RoleAIGeneration,
	RoleCard,
	RoleDetail,
	RoleRelationships,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Defaults are the implementations every renderer ships with.
var Defaults = map[Role]string{
	RoleManager:        "AdvancedCharacterManager",
	RoleCreationLaunch: "CharacterCreationLaunch",
	RoleGuidedCreation: "CharacterGuidedCreation",
	RoleTemplates:      "CharacterTemplates",
	RoleAIGeneration:   "CharacterAIGeneration",
	RoleCard:           "CharacterCard",
	RoleDetail:         "CharacterDetail",
	RoleRelationships:  "CharacterRelationships",
}

// Resolution is the outcome of resolving one role.
type Resolution struct {
	Role           Role   `json:"role"`
	Requested      string `json:"requested,omitempty"`
	Implementation string `json:"implementation"`
	Fallback       bool   `json:"fallback"`
}

// Resolver holds the registered implementations per role. Safe for
// concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	impls    map[Role]map[string]bool
	defaults map[Role]string
}

// NewResolver creates a resolver with the default implementation of every
// role registered.
func NewResolver() *Resolver {
	r := &Resolver{
		impls:    make(map[Role]map[string]bool),
		defaults: make(map[Role]string, len(Defaults)),
	}
	for role, name := range Defaults {
		r.defaults[role] = name
		r.Register(role, name)
	}
	return r
}

// Register adds an implementation variant for a role.
func (r *Resolver) Register(role Role, name string) {
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.impls[role] == nil {
		r.impls[role] = make(map[string]bool)
	}
	r.impls[role][name] = true
}

// Implementations returns the registered names for a role, sorted.
func (r *Resolver) Implementations(role Role) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.impls[role]))
	for name := range r.impls[role] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the implementation bound to role by mappings. Unknown or
// missing names fall back to the role default.
func (r *Resolver) Resolve(mappings map[Role]string, role Role) Resolution {
	requested := mappings[role]

	r.mu.RLock()
	defer r.mu.RUnlock()
	if requested != "" && r.impls[role][requested] {
		return Resolution{Role: role, Requested: requested, Implementation: requested}
	}
	return Resolution{
		Role:           role,
		Requested:      requested,
		Implementation: r.defaults[role],
		Fallback:       true,
	}
}

// ResolveAll resolves every known role.
func (r *Resolver) ResolveAll(mappings map[Role]string) []Resolution {
	out := make([]Resolution, 0, len(Roles))
	for _, role := range Roles {
		out = append(out, r.Resolve(mappings, role))
	}
	return out
}
