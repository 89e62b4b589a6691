package tabconfig

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FieldError is one validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem found in one pass.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		if fe.Field == "" {
			parts[i] = fe.Message
			continue
		}
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Validate checks the structural integrity of a data config: unique keys,
// known field types, and references between fields, sections and rules.
func Validate(d DataConfig) error {
	ve := &ValidationError{}

	sections := make(map[string]bool, len(d.Sections))
	for _, s := range d.Sections {
		if s.Key == "" {
			ve.add("sections", "section with empty key")
			continue
		}
		if sections[s.Key] {
			ve.add("sections."+s.Key, "duplicate section key")
		}
		sections[s.Key] = true
	}

	fields := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Key == "" {
			ve.add("fields", "field with empty key")
			continue
		}
		if fields[f.Key] {
			ve.add("fields."+f.Key, "duplicate field key")
		}
		fields[f.Key] = true
		if !f.Type.Valid() {
			ve.add("fields."+f.Key, "unknown type %q", f.Type)
		}
		if !sections[f.Section] {
			ve.add("fields."+f.Key, "section %q does not exist", f.Section)
		}
		if f.Type == FieldSelect && len(f.Options) == 0 {
			ve.add("fields."+f.Key, "select field has no options")
		}
	}

	for _, s := range d.Sections {
		for _, key := range s.Fields {
			if !fields[key] {
				ve.add("sections."+s.Key, "references unknown field %q", key)
			}
		}
	}
	for _, key := range d.Validation.RequiredFields {
		if !fields[key] {
			ve.add("validation.requiredFields", "unknown field %q", key)
		}
	}
	for _, key := range d.Validation.UniqueFields {
		if !fields[key] {
			ve.add("validation.uniqueFields", "unknown field %q", key)
		}
	}
	for key := range d.Validation.Validators {
		if !fields[key] {
			ve.add("validation.validators", "unknown field %q", key)
		}
	}
	return ve.orNil()
}

// ValidatorFunc checks a single value. arg is the text after the colon in
// a validator reference such as "maxLength:80".
type ValidatorFunc func(value any, arg string) error

// ValidatorSet resolves validator names used in ValidationConfig.
type ValidatorSet map[string]ValidatorFunc

// DefaultValidators returns the validators every tab can reference.
func DefaultValidators() ValidatorSet {
	return ValidatorSet{
		"nonEmpty": func(v any, _ string) error {
			if isEmpty(v) {
				return fmt.Errorf("must not be empty")
			}
			return nil
		},
		"maxLength": func(v any, arg string) error {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("bad maxLength argument %q", arg)
			}
			if s, ok := v.(string); ok && len([]rune(s)) > n {
				return fmt.Errorf("must be at most %d characters", n)
			}
			return nil
		},
		"pattern": func(v any, arg string) error {
			re, err := regexp.Compile(arg)
			if err != nil {
				return fmt.Errorf("bad pattern %q", arg)
			}
			if s, ok := v.(string); ok && !re.MatchString(s) {
				return fmt.Errorf("must match %s", arg)
			}
			return nil
		},
	}
}

// ValidateEntity checks an entity against the data config: required
// fields, field types, select options, named validators and, when existing
// entities are supplied, unique fields.
func ValidateEntity(d DataConfig, entity map[string]any, vs ValidatorSet, existing ...map[string]any) error {
	ve := &ValidationError{}

	required := make(map[string]bool)
	for _, key := range d.Validation.RequiredFields {
		required[key] = true
	}
	for _, f := range d.Fields {
		if f.Required {
			required[f.Key] = true
		}
	}
	for _, f := range d.Fields {
		v, present := entity[f.Key]
		if !present || isEmpty(v) {
			if required[f.Key] {
				ve.add(f.Key, "is required")
			}
			continue
		}
		if msg := checkType(f, v); msg != "" {
			ve.add(f.Key, "%s", msg)
		}
	}

	for key, names := range d.Validation.Validators {
		v, present := entity[key]
		if !present {
			continue
		}
		for _, ref := range names {
			name, arg, _ := strings.Cut(ref, ":")
			fn, ok := vs[name]
			if !ok {
				ve.add(key, "unknown validator %q", name)
				continue
			}
			if err := fn(v, arg); err != nil {
				ve.add(key, "%v", err)
			}
		}
	}

	for _, key := range d.Validation.UniqueFields {
		v, present := entity[key]
		if !present || isEmpty(v) {
			continue
		}
		for _, other := range existing {
			if fmt.Sprint(other[key]) == fmt.Sprint(v) {
				ve.add(key, "value %v is already taken", v)
				break
			}
		}
	}
	return ve.orNil()
}

// ApplyDefaults returns a copy of entity with missing keys filled from the
// data config's default values and custom property defaults.
func ApplyDefaults(d DataConfig, entity map[string]any) map[string]any {
	out := make(map[string]any, len(entity)+len(d.DefaultValues))
	for k, v := range entity {
		out[k] = v
	}
	for _, p := range d.CustomProperties {
		if _, ok := out[p.Key]; !ok && p.DefaultValue != nil {
			out[p.Key] = cloneValue(p.DefaultValue)
		}
	}
	for k, v := range d.DefaultValues {
		if _, ok := out[k]; !ok {
			out[k] = cloneValue(v)
		}
	}
	return out
}

func checkType(f FieldConfig, v any) string {
	switch f.Type {
	case FieldNumber:
		switch v.(type) {
		case float64, float32, int, int64, int32:
		default:
			return "must be a number"
		}
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return "must be a boolean"
		}
	case FieldArray:
		switch v.(type) {
		case []any, []string:
		default:
			return "must be a list"
		}
	case FieldSelect:
		s, ok := v.(string)
		if !ok {
			return "must be one of the options"
		}
		for _, opt := range f.Options {
			if opt == s {
				return ""
			}
		}
		return fmt.Sprintf("%q is not one of %v", s, f.Options)
	case FieldText, FieldTextarea, FieldDate:
		if _, ok := v.(string); !ok {
			return "must be a string"
		}
	}
	return ""
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}
