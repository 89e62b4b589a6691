// Package signals summarizes the activity trail of a registry entity and
// flags change patterns worth a second look.
package signals

// Rule escalates when at least Count entries of EventType (or of Category,
// when EventType is empty) occur within WithinDays of the window end.
type Rule struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	EventType   string `json:"eventType,omitempty"`
	Category    string `json:"category,omitempty"`
	Count       int    `json:"count"`
	WithinDays  int    `json:"withinDays"`
	Weight      string `json:"weight"`
}

// Rules are evaluated by Aggregate.
var Rules = []Rule{
	{
		ID:          "config_churn",
		Description: "Tab configuration edited repeatedly in a short period",
		EventType:   "tab_updated",
		Count:       5,
		WithinDays:  7,
		Weight:      "major",
	},
	{
		ID:          "refresh_storm",
		Description: "Instances refreshed unusually often",
		EventType:   "instance_refreshed",
		Count:       20,
		WithinDays:  1,
		Weight:      "minor",
	},
	{
		ID:          "template_churn",
		Description: "Template replaced several times",
		EventType:   "template_registered",
		Count:       3,
		WithinDays:  7,
		Weight:      "minor",
	},
	{
		ID:          "instance_sprawl",
		Description: "Tab bound to many projects in a short period",
		Category:    "instance",
		Count:       25,
		WithinDays:  7,
		Weight:      "info",
	},
}
