package tabconfig

// FeaturePatch overrides individual features. A nil pointer keeps the base
// value; Custom is merged key by key; SortOptions replaces the base list
// only when non-empty.
type FeaturePatch struct {
	HasAIGeneration    *bool `json:"hasAIGeneration,omitempty"`
	HasGuidedCreation  *bool `json:"hasGuidedCreation,omitempty"`
	HasTemplates       *bool `json:"hasTemplates,omitempty"`
	HasBulkOperations  *bool `json:"hasBulkOperations,omitempty"`
	HasImportExport    *bool `json:"hasImportExport,omitempty"`
	HasRelationships   *bool `json:"hasRelationships,omitempty"`
	HasImageGeneration *bool `json:"hasImageGeneration,omitempty"`
	HasAdvancedSearch  *bool `json:"hasAdvancedSearch,omitempty"`
	HasAnalytics       *bool `json:"hasAnalytics,omitempty"`
	HasVersioning      *bool `json:"hasVersioning,omitempty"`

	// Sticky: never switched off by a patch that leaves them out.
	HasAPIIntegration  *bool `json:"hasAPIIntegration,omitempty"`
	HasRealTimeUpdates *bool `json:"hasRealTimeUpdates,omitempty"`

	CreationMode *CreationMode   `json:"creationMode,omitempty"`
	Custom       map[string]bool `json:"custom,omitempty"`
	SortOptions  []SortOption    `json:"sortOptions,omitempty"`
}

// UIPatch overrides UI parameters. DisplayFields replaces the base record
// only when it is non-nil and has at least one populated view.
type UIPatch struct {
	PrimaryColor   *string        `json:"primaryColor,omitempty"`
	SecondaryColor *string        `json:"secondaryColor,omitempty"`
	AccentColor    *string        `json:"accentColor,omitempty"`
	Icon           *string        `json:"icon,omitempty"`
	IconColor      *string        `json:"iconColor,omitempty"`
	DefaultView    *string        `json:"defaultView,omitempty"`
	CardLayout     *string        `json:"cardLayout,omitempty"`
	DisplayFields  *DisplayFields `json:"displayFields,omitempty"`
}

// DataConfigPatch overrides data-config members wholesale. Each non-nil
// member replaces the base one.
type DataConfigPatch struct {
	EntityType       *string           `json:"entityType,omitempty"`
	Fields           []FieldConfig     `json:"fields,omitempty"`
	Sections         []SectionConfig   `json:"sections,omitempty"`
	Validation       *ValidationConfig `json:"validation,omitempty"`
	DefaultValues    map[string]any    `json:"defaultValues,omitempty"`
	CustomProperties []CustomProperty  `json:"customProperties,omitempty"`
}

// Extensions are appended to a data config after the patch is applied.
// They only ever grow the inherited lists.
type Extensions struct {
	Fields     []FieldConfig    `json:"customFields,omitempty"`
	Sections   []SectionConfig  `json:"customSections,omitempty"`
	Properties []CustomProperty `json:"customProperties,omitempty"`
}

// Bool returns a pointer to b, for building patches.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }
