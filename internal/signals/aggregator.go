package signals

import (
	"sort"
	"time"

	"github.com/matthewbaird/tabforge/internal/activity"
)

// CategorySummary counts the entries of one category.
type CategorySummary struct {
	Category    string         `json:"category"`
	Count       int            `json:"count"`
	ByWeight    map[string]int `json:"byWeight"`
	ByEventType map[string]int `json:"byEventType"`
	Trend       string         `json:"trend"`
}

// Escalation is a rule that fired.
type Escalation struct {
	Rule             Rule      `json:"rule"`
	TriggeringCount  int       `json:"triggeringCount"`
	EarliestOccurred time.Time `json:"earliestOccurred"`
	LatestOccurred   time.Time `json:"latestOccurred"`
}

// Summary is the aggregate view of an entity's activity in a window.
type Summary struct {
	EntityType  string                     `json:"entityType"`
	EntityID    string                     `json:"entityId"`
	Since       time.Time                  `json:"since"`
	Until       time.Time                  `json:"until"`
	Total       int                        `json:"total"`
	LastChange  *time.Time                 `json:"lastChange,omitempty"`
	Categories  map[string]CategorySummary `json:"categories"`
	Escalations []Escalation               `json:"escalations"`
	Status      string                     `json:"status"`
}

// Aggregate produces a Summary from entries within [since, until]. Entries
// outside the window are ignored. Rules are evaluated relative to until.
func Aggregate(entries []activity.Entry, entityType, entityID string, since, until time.Time) Summary {
	var inWindow []activity.Entry
	for _, e := range entries {
		if e.OccurredAt.Before(since) || e.OccurredAt.After(until) {
			continue
		}
		inWindow = append(inWindow, e)
	}

	categories := make(map[string]*CategorySummary)
	var last time.Time
	for _, e := range inWindow {
		cs, ok := categories[e.Category]
		if !ok {
			cs = &CategorySummary{
				Category:    e.Category,
				ByWeight:    make(map[string]int),
				ByEventType: make(map[string]int),
			}
			categories[e.Category] = cs
		}
		cs.Count++
		cs.ByWeight[e.Weight]++
		cs.ByEventType[e.EventType]++
		if e.OccurredAt.After(last) {
			last = e.OccurredAt
		}
	}

	result := make(map[string]CategorySummary, len(categories))
	for cat, cs := range categories {
		cs.Trend = computeTrend(inWindow, cat, since, until)
		result[cat] = *cs
	}

	s := Summary{
		EntityType:  entityType,
		EntityID:    entityID,
		Since:       since,
		Until:       until,
		Total:       len(inWindow),
		Categories:  result,
		Escalations: EvaluateEscalations(inWindow, until),
	}
	if !last.IsZero() {
		s.LastChange = &last
	}
	s.Status = status(s)
	return s
}

// EvaluateEscalations checks every rule in Rules against entries.
func EvaluateEscalations(entries []activity.Entry, now time.Time) []Escalation {
	out := []Escalation{}
	for _, rule := range Rules {
		if es, ok := evaluateRule(rule, entries, now); ok {
			out = append(out, es)
		}
	}
	return out
}

func evaluateRule(rule Rule, entries []activity.Entry, now time.Time) (Escalation, bool) {
	windowStart := now.AddDate(0, 0, -rule.WithinDays)

	var matching []activity.Entry
	for _, e := range entries {
		if e.OccurredAt.Before(windowStart) || e.OccurredAt.After(now) {
			continue
		}
		if rule.EventType != "" && e.EventType != rule.EventType {
			continue
		}
		if rule.Category != "" && e.Category != rule.Category {
			continue
		}
		matching = append(matching, e)
	}
	if len(matching) == 0 || len(matching) < rule.Count {
		return Escalation{}, false
	}

	sort.Slice(matching, func(i, j int) bool {
		return matching[i].OccurredAt.Before(matching[j].OccurredAt)
	})
	return Escalation{
		Rule:             rule,
		TriggeringCount:  len(matching),
		EarliestOccurred: matching[0].OccurredAt,
		LatestOccurred:   matching[len(matching)-1].OccurredAt,
	}, true
}

// computeTrend compares volume in the first vs second half of the window.
func computeTrend(entries []activity.Entry, category string, since, until time.Time) string {
	mid := since.Add(until.Sub(since) / 2)
	var firstHalf, secondHalf int
	for _, e := range entries {
		if e.Category != category {
			continue
		}
		if e.OccurredAt.Before(mid) {
			firstHalf++
		} else {
			secondHalf++
		}
	}
	if secondHalf > firstHalf+1 {
		return "rising"
	}
	if firstHalf > secondHalf+1 {
		return "falling"
	}
	return "stable"
}

func status(s Summary) string {
	for _, e := range s.Escalations {
		if activity.IsAtLeastWeight(e.Rule.Weight, "major") {
			return "churning"
		}
	}
	if s.Total == 0 {
		return "quiet"
	}
	return "active"
}
