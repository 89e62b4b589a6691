// Package event defines the domain events the tab registry emits and
// records them as activity rows before handing them to the event bus.
package event

import (
	"context"
	"fmt"

	"github.com/matthewbaird/tabforge/internal/activity"
)

// Recorder persists a domain event.
type Recorder interface {
	Record(ctx context.Context, evt DomainEvent) error
}

// Publisher sends domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// ActivityRecorder writes one activity row per entity an event touches and
// then publishes the event. Nothing is published when the write fails.
type ActivityRecorder struct {
	store activity.Store
	pub   Publisher
}

// RecorderOption configures an ActivityRecorder.
type RecorderOption func(*ActivityRecorder)

// WithPublisher publishes every recorded event to p.
func WithPublisher(p Publisher) RecorderOption {
	return func(r *ActivityRecorder) { r.pub = p }
}

// NewActivityRecorder creates a recorder backed by store.
func NewActivityRecorder(store activity.Store, opts ...RecorderOption) *ActivityRecorder {
	r := &ActivityRecorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ActivityRecorder) Record(ctx context.Context, evt DomainEvent) error {
	if err := r.store.WriteEntries(ctx, Entries(evt)); err != nil {
		return fmt.Errorf("recording %s %s: %w", evt.EventType, evt.ID, err)
	}
	if r.pub != nil {
		r.pub.Publish(ctx, evt)
	}
	return nil
}

// Entries indexes evt under each entity it references. References without
// an id are skipped and an entity referenced twice is indexed once, under
// its first role.
func Entries(evt DomainEvent) []activity.Entry {
	seen := make(map[activity.SourceRef]bool, len(evt.AffectedEntities))
	out := make([]activity.Entry, 0, len(evt.AffectedEntities))
	for _, ref := range evt.AffectedEntities {
		if ref.EntityID == "" {
			continue
		}
		key := activity.SourceRef{EntityType: ref.EntityType, EntityID: ref.EntityID}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, activity.Entry{
			EventID:           evt.ID,
			EventType:         evt.EventType,
			OccurredAt:        evt.OccurredAt,
			IndexedEntityType: ref.EntityType,
			IndexedEntityID:   ref.EntityID,
			EntityRole:        ref.Role,
			SourceRefs:        evt.AffectedEntities,
			Summary:           evt.Summary,
			Category:          evt.Category,
			Weight:            evt.Weight,
			Payload:           evt.Payload,
		})
	}
	return out
}
