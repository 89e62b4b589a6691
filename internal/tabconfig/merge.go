package tabconfig

// MergeFeatures applies p over a copy of base.
func MergeFeatures(base Features, p *FeaturePatch) Features {
	out := base.Clone()
	if p == nil {
		return out
	}
	setBool(&out.HasAIGeneration, p.HasAIGeneration)
	setBool(&out.HasGuidedCreation, p.HasGuidedCreation)
	setBool(&out.HasTemplates, p.HasTemplates)
	setBool(&out.HasBulkOperations, p.HasBulkOperations)
	setBool(&out.HasImportExport, p.HasImportExport)
	setBool(&out.HasRelationships, p.HasRelationships)
	setBool(&out.HasImageGeneration, p.HasImageGeneration)
	setBool(&out.HasAdvancedSearch, p.HasAdvancedSearch)
	setBool(&out.HasAnalytics, p.HasAnalytics)
	setBool(&out.HasVersioning, p.HasVersioning)
	setBool(&out.HasAPIIntegration, p.HasAPIIntegration)
	setBool(&out.HasRealTimeUpdates, p.HasRealTimeUpdates)

	if p.CreationMode != nil {
		out.CreationMode = *p.CreationMode
	}
	if len(p.Custom) > 0 {
		if out.Custom == nil {
			out.Custom = make(map[string]bool, len(p.Custom))
		}
		for k, v := range p.Custom {
			out.Custom[k] = v
		}
	}
	if len(p.SortOptions) > 0 {
		out.SortOptions = cloneSlice(p.SortOptions)
	}
	return out
}

// MergeUI applies p over a copy of base.
func MergeUI(base UIConfig, p *UIPatch) UIConfig {
	out := base.Clone()
	if p == nil {
		return out
	}
	setString(&out.PrimaryColor, p.PrimaryColor)
	setString(&out.SecondaryColor, p.SecondaryColor)
	setString(&out.AccentColor, p.AccentColor)
	setString(&out.Icon, p.Icon)
	setString(&out.IconColor, p.IconColor)
	setString(&out.DefaultView, p.DefaultView)
	setString(&out.CardLayout, p.CardLayout)
	if p.DisplayFields != nil && !p.DisplayFields.Empty() {
		out.DisplayFields = p.DisplayFields.Clone()
	}
	return out
}

// MergeDataConfig applies p over a copy of base, then appends ext.
func MergeDataConfig(base DataConfig, p *DataConfigPatch, ext Extensions) DataConfig {
	out := base.Clone()
	if p != nil {
		if p.EntityType != nil {
			out.EntityType = *p.EntityType
		}
		if p.Fields != nil {
			out.Fields = DataConfig{Fields: p.Fields}.Clone().Fields
		}
		if p.Sections != nil {
			out.Sections = DataConfig{Sections: p.Sections}.Clone().Sections
		}
		if p.Validation != nil {
			out.Validation = p.Validation.Clone()
		}
		if p.DefaultValues != nil {
			out.DefaultValues = cloneValueMap(p.DefaultValues)
		}
		if p.CustomProperties != nil {
			out.CustomProperties = DataConfig{CustomProperties: p.CustomProperties}.Clone().CustomProperties
		}
	}

	extra := DataConfig{Fields: ext.Fields, Sections: ext.Sections, CustomProperties: ext.Properties}.Clone()
	out.Fields = append(out.Fields, extra.Fields...)
	out.Sections = append(out.Sections, extra.Sections...)
	out.CustomProperties = append(out.CustomProperties, extra.CustomProperties...)
	return out
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
