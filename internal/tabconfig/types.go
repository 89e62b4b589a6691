// Package tabconfig defines the configuration schema of a tab: identity,
// theme, feature flags, field/section layout and component bindings.
//
// The types are plain data. JSON tags follow the export bundle format, so a
// TabConfig round-trips through ExportTab/ImportTab unchanged.
package tabconfig

import (
	"time"

	"github.com/matthewbaird/tabforge/internal/components"
)

// DefaultColor is used when a tab is created without a color.
const DefaultColor = "#3b82f6"

// FieldType classifies how a field is edited and validated.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldArray    FieldType = "array"
	FieldSelect   FieldType = "select"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldBoolean  FieldType = "boolean"
)

// Valid reports whether ft is a known field type.
func (ft FieldType) Valid() bool {
	switch ft {
	case FieldText, FieldTextarea, FieldArray, FieldSelect, FieldNumber, FieldDate, FieldBoolean:
		return true
	default:
		return false
	}
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// CreationMode selects the default creation flow.
type CreationMode string

const (
	CreationQuick  CreationMode = "quick"
	CreationGuided CreationMode = "guided"
	CreationAI     CreationMode = "ai"
)

// SortOption is one entry of a tab's sort menu.
type SortOption struct {
	Key       string        `json:"key"`
	Label     string        `json:"label"`
	Direction SortDirection `json:"direction"`
	Category  string        `json:"category,omitempty"`
}

// Features holds the capability flags of a tab.
type Features struct {
	HasAIGeneration    bool `json:"hasAIGeneration"`
	HasGuidedCreation  bool `json:"hasGuidedCreation"`
	HasTemplates       bool `json:"hasTemplates"`
	HasBulkOperations  bool `json:"hasBulkOperations"`
	HasImportExport    bool `json:"hasImportExport"`
	HasRelationships   bool `json:"hasRelationships"`
	HasImageGeneration bool `json:"hasImageGeneration"`
	HasAdvancedSearch  bool `json:"hasAdvancedSearch"`
	HasAnalytics       bool `json:"hasAnalytics"`
	HasVersioning      bool `json:"hasVersioning"`
	HasAPIIntegration  bool `json:"hasAPIIntegration"`
	HasRealTimeUpdates bool `json:"hasRealTimeUpdates"`

	CreationMode CreationMode    `json:"creationMode,omitempty"`
	Custom       map[string]bool `json:"custom,omitempty"`
	SortOptions  []SortOption    `json:"sortOptions"`
}

// DisplayFields maps each view context to an ordered list of field keys.
type DisplayFields struct {
	Card    []string `json:"card"`
	List    []string `json:"list"`
	Preview []string `json:"preview"`
}

// Empty reports whether no view has any field.
func (d DisplayFields) Empty() bool {
	return len(d.Card) == 0 && len(d.List) == 0 && len(d.Preview) == 0
}

// UIConfig holds the visual parameters of a tab.
type UIConfig struct {
	PrimaryColor   string        `json:"primaryColor"`
	SecondaryColor string        `json:"secondaryColor,omitempty"`
	AccentColor    string        `json:"accentColor,omitempty"`
	Icon           string        `json:"icon,omitempty"`
	IconColor      string        `json:"iconColor,omitempty"`
	DefaultView    string        `json:"defaultView"` // "grid", "list", "table"
	CardLayout     string        `json:"cardLayout"`  // "compact", "detailed", "portrait"
	DisplayFields  DisplayFields `json:"displayFields"`
}

// FieldConfig describes one editable field of the tab's entity.
type FieldConfig struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Section     string    `json:"section"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required,omitempty"`
	ShowInCard  bool      `json:"showInCard,omitempty"`
	ShowInList  bool      `json:"showInList,omitempty"`
	Options     []string  `json:"options,omitempty"`
	AIEnhanced  bool      `json:"aiEnhanced,omitempty"`
}

// SectionConfig groups fields in the editor.
type SectionConfig struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Fields      []string `json:"fields"`
	Collapsible bool     `json:"collapsible,omitempty"`
}

// ValidationConfig lists entity-level rules. Validators maps a field key
// to the names of validators registered in a ValidatorSet.
type ValidationConfig struct {
	RequiredFields []string            `json:"requiredFields"`
	UniqueFields   []string            `json:"uniqueFields"`
	Validators     map[string][]string `json:"validators,omitempty"`
}

// CustomProperty is a property added on top of the base field set.
type CustomProperty struct {
	Key          string    `json:"key"`
	Label        string    `json:"label"`
	Type         FieldType `json:"type"`
	DefaultValue any       `json:"defaultValue,omitempty"`
}

// DataConfig describes the entity a tab manages.
type DataConfig struct {
	EntityType       string           `json:"entityType"`
	Fields           []FieldConfig    `json:"fields"`
	Sections         []SectionConfig  `json:"sections"`
	Validation       ValidationConfig `json:"validation"`
	DefaultValues    map[string]any   `json:"defaultValues,omitempty"`
	CustomProperties []CustomProperty `json:"customProperties"`
}

// Field returns the field with the given key.
func (d DataConfig) Field(key string) (FieldConfig, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldConfig{}, false
}

// ComponentMappings binds UI roles to implementation identifiers.
type ComponentMappings map[components.Role]string

// TabConfig is the full configuration of a tab.
type TabConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	Gradient    string `json:"gradient,omitempty"`

	IsCustom   bool   `json:"isCustom"`
	ClonedFrom string `json:"clonedFrom,omitempty"`
	TemplateID string `json:"templateId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Features          Features          `json:"features"`
	UI                UIConfig          `json:"ui"`
	DataConfig        DataConfig        `json:"dataConfig"`
	ComponentMappings ComponentMappings `json:"componentMappings"`
}
