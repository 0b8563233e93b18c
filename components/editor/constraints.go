package editor

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Constraint names understood by Constraints.
const (
	RuleRequired = "required"
	RuleJSON     = "json"
	RuleURL      = "url"
	RuleOption   = "option"
	RuleSchema   = "schema"
)

// Constraint reports whether value satisfies a named rule for the field.
type Constraint func(desc FieldDescriptor, value any) bool

// Constraints maps rule names to checks. Unknown names are ignored.
type Constraints map[string]Constraint

// DefaultConstraints builds the standard rule set. The schema rule uses
// validator to check code fields that declare a schema.
func DefaultConstraints(validator ConfigValidator) Constraints {
	if validator == nil {
		validator = NewJSONSchemaValidator()
	}
	return Constraints{
		RuleRequired: func(_ FieldDescriptor, value any) bool {
			return !isEmpty(value)
		},
		RuleJSON: func(_ FieldDescriptor, value any) bool {
			switch v := value.(type) {
			case nil, map[string]any, FormState:
				return true
			case string:
				if strings.TrimSpace(v) == "" {
					return true
				}
				return json.Valid([]byte(v))
			}
			return false
		},
		RuleURL: func(_ FieldDescriptor, value any) bool {
			s, _ := value.(string)
			if strings.TrimSpace(s) == "" {
				return true
			}
			u, err := url.Parse(s)
			return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
		},
		RuleOption: func(desc FieldDescriptor, value any) bool {
			s, _ := value.(string)
			if s == "" || len(desc.Options) == 0 {
				return true
			}
			for _, opt := range desc.Options {
				if opt.Value == s {
					return true
				}
			}
			return false
		},
		RuleSchema: func(desc FieldDescriptor, value any) bool {
			cfg, ok := value.(map[string]any)
			if !ok || len(desc.Schema) == 0 {
				return true
			}
			return validator.Validate(desc.Name, desc.Schema, cfg) == nil
		},
	}
}

// Check returns the sorted names of violated rules.
func (c Constraints) Check(desc FieldDescriptor, value any, rules []string) []string {
	var violated []string
	seen := map[string]bool{}
	for _, rule := range rules {
		if seen[rule] {
			continue
		}
		seen[rule] = true
		check, ok := c[rule]
		if !ok {
			continue
		}
		if !check(desc, value) {
			violated = append(violated, rule)
		}
	}
	return violated
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]any:
		return len(v) == 0
	case FormState:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}
