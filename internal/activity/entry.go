package activity

import (
	"encoding/json"
	"time"
)

// SourceRef identifies an entity referenced by a domain event.
type SourceRef struct {
	EntityType string `json:"entityType"` // "tab", "template", "instance", "project"
	EntityID   string `json:"entityId"`
	Role       string `json:"role"` // "subject", "source", "context"
}

// Entry is a secondary index entry over the event log, keyed by a
// referenced entity. One event produces one entry per reference.
type Entry struct {
	EventID           string          `json:"eventId"`
	EventType         string          `json:"eventType"`
	OccurredAt        time.Time       `json:"occurredAt"`
	IndexedEntityType string          `json:"indexedEntityType"`
	IndexedEntityID   string          `json:"indexedEntityId"`
	EntityRole        string          `json:"entityRole"`
	SourceRefs        []SourceRef     `json:"sourceRefs"`
	Summary           string          `json:"summary"`
	Category          string          `json:"category"`
	Weight            string          `json:"weight"`
	Payload           json.RawMessage `json:"payload,omitempty"`
}

// WeightOrder maps entry weights to severity (lower = more severe).
var WeightOrder = map[string]int{
	"critical": 1,
	"major":    2,
	"minor":    3,
	"info":     4,
}

// WeightSeverity returns the severity of weight; unknown weights rank last.
func WeightSeverity(weight string) int {
	if s, ok := WeightOrder[weight]; ok {
		return s
	}
	return len(WeightOrder) + 1
}

// IsAtLeastWeight reports whether actual is at least as severe as minimum.
func IsAtLeastWeight(actual, minimum string) bool {
	return WeightSeverity(actual) <= WeightSeverity(minimum)
}
