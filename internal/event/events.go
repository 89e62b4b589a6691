package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/tabforge/internal/activity"
)

// DomainEvent carries the canonical shape of every registry event.
type DomainEvent struct {
	ID               string
	EventType        string
	OccurredAt       time.Time
	AffectedEntities []activity.SourceRef
	Summary          string
	Category         string // "tab", "template", "instance"
	Weight           string // "critical", "major", "minor", "info"
	Payload          json.RawMessage
}

// Subject returns the first reference with role "subject".
func (e DomainEvent) Subject() (activity.SourceRef, bool) {
	for _, ref := range e.AffectedEntities {
		if ref.Role == "subject" {
			return ref, true
		}
	}
	return activity.SourceRef{}, false
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func tabRef(id, role string) activity.SourceRef {
	return activity.SourceRef{EntityType: "tab", EntityID: id, Role: role}
}

// ── Tab events ───────────────────────────────────────────────────────────────

// TabCreatedPayload carries event-specific data for TabCreated.
type TabCreatedPayload struct {
	TabID       string `json:"tabId"`
	DisplayName string `json:"displayName"`
	TemplateID  string `json:"templateId"`
}

func NewTabCreated(p TabCreatedPayload) DomainEvent {
	return DomainEvent{
		ID:         newID(),
		EventType:  "tab_created",
		OccurredAt: time.Now(),
		AffectedEntities: []activity.SourceRef{
			tabRef(p.TabID, "subject"),
			{EntityType: "template", EntityID: p.TemplateID, Role: "source"},
		},
		Summary:  fmt.Sprintf("Tab %q created from template %s", p.DisplayName, p.TemplateID),
		Category: "tab",
		Weight:   "major",
		Payload:  mustJSON(p),
	}
}

// TabClonedPayload carries event-specific data for TabCloned. FellBack is
// set when the source was not registered and the base template was used.
type TabClonedPayload struct {
	TabID       string `json:"tabId"`
	DisplayName string `json:"displayName"`
	SourceTabID string `json:"sourceTabId"`
	FellBack    bool   `json:"fellBack,omitempty"`
}

func NewTabCloned(p TabClonedPayload) DomainEvent {
	refs := []activity.SourceRef{tabRef(p.TabID, "subject")}
	summary := fmt.Sprintf("Tab %q cloned from %s", p.DisplayName, p.SourceTabID)
	if p.FellBack {
		summary = fmt.Sprintf("Tab %q cloned from base template (source %s not found)", p.DisplayName, p.SourceTabID)
	} else {
		refs = append(refs, tabRef(p.SourceTabID, "source"))
	}
	return DomainEvent{
		ID:               newID(),
		EventType:        "tab_cloned",
		OccurredAt:       time.Now(),
		AffectedEntities: refs,
		Summary:          summary,
		Category:         "tab",
		Weight:           "major",
		Payload:          mustJSON(p),
	}
}

// TabUpdatedPayload carries event-specific data for TabUpdated.
type TabUpdatedPayload struct {
	TabID  string   `json:"tabId"`
	Fields []string `json:"fields"`
}

func NewTabUpdated(p TabUpdatedPayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        "tab_updated",
		OccurredAt:       time.Now(),
		AffectedEntities: []activity.SourceRef{tabRef(p.TabID, "subject")},
		Summary:          fmt.Sprintf("Tab %s updated (%d fields)", p.TabID, len(p.Fields)),
		Category:         "tab",
		Weight:           "minor",
		Payload:          mustJSON(p),
	}
}

// TabDeletedPayload carries event-specific data for TabDeleted.
type TabDeletedPayload struct {
	TabID       string   `json:"tabId"`
	InstanceIDs []string `json:"instanceIds"`
}

func NewTabDeleted(p TabDeletedPayload) DomainEvent {
	refs := []activity.SourceRef{tabRef(p.TabID, "subject")}
	for _, id := range p.InstanceIDs {
		refs = append(refs, activity.SourceRef{EntityType: "instance", EntityID: id, Role: "context"})
	}
	return DomainEvent{
		ID:               newID(),
		EventType:        "tab_deleted",
		OccurredAt:       time.Now(),
		AffectedEntities: refs,
		Summary:          fmt.Sprintf("Tab %s deleted with %d instances", p.TabID, len(p.InstanceIDs)),
		Category:         "tab",
		Weight:           "critical",
		Payload:          mustJSON(p),
	}
}

// TabImportedPayload carries event-specific data for TabImported.
type TabImportedPayload struct {
	TabID       string   `json:"tabId"`
	ExportedID  string   `json:"exportedId"`
	TemplateIDs []string `json:"templateIds,omitempty"`
}

func NewTabImported(p TabImportedPayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        "tab_imported",
		OccurredAt:       time.Now(),
		AffectedEntities: []activity.SourceRef{tabRef(p.TabID, "subject")},
		Summary:          fmt.Sprintf("Tab %s imported from bundle of %s", p.TabID, p.ExportedID),
		Category:         "tab",
		Weight:           "major",
		Payload:          mustJSON(p),
	}
}

// ── Template events ──────────────────────────────────────────────────────────

// TemplateRegisteredPayload carries event-specific data for TemplateRegistered.
type TemplateRegisteredPayload struct {
	TemplateID string `json:"templateId"`
	Category   string `json:"category"`
	Version    string `json:"version"`
	Replaced   bool   `json:"replaced,omitempty"`
}

func NewTemplateRegistered(p TemplateRegisteredPayload) DomainEvent {
	verb := "registered"
	if p.Replaced {
		verb = "replaced"
	}
	return DomainEvent{
		ID:         newID(),
		EventType:  "template_registered",
		OccurredAt: time.Now(),
		AffectedEntities: []activity.SourceRef{
			{EntityType: "template", EntityID: p.TemplateID, Role: "subject"},
		},
		Summary:  fmt.Sprintf("Template %s %s (v%s)", p.TemplateID, verb, p.Version),
		Category: "template",
		Weight:   "minor",
		Payload:  mustJSON(p),
	}
}

// ── Instance events ──────────────────────────────────────────────────────────

// InstancePayload carries event-specific data for instance lifecycle events.
type InstancePayload struct {
	InstanceID string `json:"instanceId"`
	TabID      string `json:"tabId"`
	ProjectID  string `json:"projectId"`
	CacheKey   string `json:"cacheKey"`
}

func (p InstancePayload) refs() []activity.SourceRef {
	return []activity.SourceRef{
		{EntityType: "instance", EntityID: p.InstanceID, Role: "subject"},
		tabRef(p.TabID, "context"),
		{EntityType: "project", EntityID: p.ProjectID, Role: "context"},
	}
}

func NewInstanceCreated(p InstancePayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        "instance_created",
		OccurredAt:       time.Now(),
		AffectedEntities: p.refs(),
		Summary:          fmt.Sprintf("Tab %s bound to project %s", p.TabID, p.ProjectID),
		Category:         "instance",
		Weight:           "minor",
		Payload:          mustJSON(p),
	}
}

func NewInstanceRefreshed(p InstancePayload) DomainEvent {
	return DomainEvent{
		ID:               newID(),
		EventType:        "instance_refreshed",
		OccurredAt:       time.Now(),
		AffectedEntities: p.refs(),
		Summary:          fmt.Sprintf("Instance %s refreshed from tab %s", p.InstanceID, p.TabID),
		Category:         "instance",
		Weight:           "info",
		Payload:          mustJSON(p),
	}
}
