package tabconfig

// Clone returns a deep copy of the config. Registry reads and tab instances
// hold clones so later edits to one never show through another.
func (c TabConfig) Clone() TabConfig {
	out := c
	out.Features = c.Features.Clone()
	out.UI = c.UI.Clone()
	out.DataConfig = c.DataConfig.Clone()
	out.ComponentMappings = c.ComponentMappings.Clone()
	return out
}

func (f Features) Clone() Features {
	out := f
	out.Custom = cloneBoolMap(f.Custom)
	out.SortOptions = cloneSlice(f.SortOptions)
	return out
}

func (u UIConfig) Clone() UIConfig {
	out := u
	out.DisplayFields = u.DisplayFields.Clone()
	return out
}

func (d DisplayFields) Clone() DisplayFields {
	return DisplayFields{
		Card:    cloneSlice(d.Card),
		List:    cloneSlice(d.List),
		Preview: cloneSlice(d.Preview),
	}
}

func (d DataConfig) Clone() DataConfig {
	out := d
	if d.Fields != nil {
		out.Fields = make([]FieldConfig, len(d.Fields))
		for i, f := range d.Fields {
			out.Fields[i] = f.Clone()
		}
	}
	if d.Sections != nil {
		out.Sections = make([]SectionConfig, len(d.Sections))
		for i, s := range d.Sections {
			out.Sections[i] = s.Clone()
		}
	}
	out.Validation = d.Validation.Clone()
	out.DefaultValues = cloneValueMap(d.DefaultValues)
	if d.CustomProperties != nil {
		out.CustomProperties = make([]CustomProperty, len(d.CustomProperties))
		for i, p := range d.CustomProperties {
			p.DefaultValue = cloneValue(p.DefaultValue)
			out.CustomProperties[i] = p
		}
	}
	return out
}

func (f FieldConfig) Clone() FieldConfig {
	out := f
	out.Options = cloneSlice(f.Options)
	return out
}

func (s SectionConfig) Clone() SectionConfig {
	out := s
	out.Fields = cloneSlice(s.Fields)
	return out
}

func (v ValidationConfig) Clone() ValidationConfig {
	out := ValidationConfig{
		RequiredFields: cloneSlice(v.RequiredFields),
		UniqueFields:   cloneSlice(v.UniqueFields),
	}
	if v.Validators != nil {
		out.Validators = make(map[string][]string, len(v.Validators))
		for k, names := range v.Validators {
			out.Validators[k] = cloneSlice(names)
		}
	}
	return out
}

func (m ComponentMappings) Clone() ComponentMappings {
	if m == nil {
		return nil
	}
	out := make(ComponentMappings, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func cloneBoolMap(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneValueMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the JSON-shaped containers inside a default value.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneValueMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return cloneSlice(t)
	default:
		return v
	}
}
