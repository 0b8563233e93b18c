package editor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FieldKind is the input primitive a field wraps.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindSelect   FieldKind = "select"
	KindCheckbox FieldKind = "checkbox"
	KindCode     FieldKind = "code"
)

// FieldDescriptor describes one input for a render pass.
type FieldDescriptor struct {
	Name     string         `json:"name"`
	Label    string         `json:"label"`
	Kind     FieldKind      `json:"kind"`
	Rules    []string       `json:"rules,omitempty"`
	Default  any            `json:"default,omitempty"`
	Value    any            `json:"value,omitempty"`
	Disabled bool           `json:"disabled,omitempty"`
	Required bool           `json:"required,omitempty"`
	Hint     string         `json:"hint,omitempty"`
	Options  []Option       `json:"options,omitempty"`
	Schema   map[string]any `json:"-"`
	Errors   []string       `json:"errors,omitempty"`
}

// CheckboxEvent mirrors the payload browsers send for checkbox toggles.
type CheckboxEvent struct {
	Checked bool `json:"checked"`
}

// Field is the uniform value/onChange contract of one input.
type Field interface {
	Name() string
	Descriptor() FieldDescriptor
	Value() any
	Validate() []string
	OnChange(raw any) error
}

// ChangeFunc receives the normalized value of a field edit.
type ChangeFunc func(value any)

type fieldController struct {
	mu          sync.RWMutex
	desc        FieldDescriptor
	value       any
	raw         any
	malformed   bool
	onChange    ChangeFunc
	constraints Constraints
}

// NewField builds a field controller and registers it in reg.
func NewField(reg *Registry, constraints Constraints, desc FieldDescriptor, onChange ChangeFunc) (Field, error) {
	if strings.TrimSpace(desc.Name) == "" {
		return nil, errEmptyFieldName
	}
	if desc.Label == "" {
		desc.Label = HumanizeName(desc.Name)
	}
	if desc.Kind == "" {
		desc.Kind = KindText
	}
	if constraints == nil {
		constraints = DefaultConstraints(nil)
	}
	value := desc.Value
	if value == nil {
		value = desc.Default
	}
	f := &fieldController{
		desc:        desc,
		value:       value,
		onChange:    onChange,
		constraints: constraints,
	}
	if reg != nil {
		if err := reg.Register(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *fieldController) Name() string { return f.desc.Name }

func (f *fieldController) Descriptor() FieldDescriptor {
	f.mu.RLock()
	defer f.mu.RUnlock()
	desc := f.desc
	desc.Value = f.value
	if f.malformed {
		desc.Value = f.raw
	}
	return desc
}

func (f *fieldController) Value() any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

// Validate returns the sorted names of violated constraints.
func (f *fieldController) Validate() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	violated := f.constraints.Check(f.desc, f.value, f.rules())
	if f.malformed {
		violated = append(violated, RuleJSON)
	}
	sort.Strings(violated)
	return dedupe(violated)
}

// OnChange normalizes raw input and forwards it. Input that cannot be
// normalized marks the field invalid and is not forwarded.
func (f *fieldController) OnChange(raw any) error {
	if f.desc.Disabled {
		return fmt.Errorf("%w: %s", ErrFieldDisabled, f.desc.Name)
	}
	value, err := normalize(f.desc.Kind, raw)
	f.mu.Lock()
	if err != nil {
		f.raw = raw
		f.malformed = true
		f.mu.Unlock()
		return nil
	}
	f.raw = nil
	f.malformed = false
	f.value = value
	f.mu.Unlock()
	if f.onChange != nil {
		f.onChange(value)
	}
	return nil
}

func (f *fieldController) rules() []string {
	rules := append([]string(nil), f.desc.Rules...)
	if f.desc.Required {
		rules = append(rules, RuleRequired)
	}
	if f.desc.Kind == KindSelect && len(f.desc.Options) > 0 {
		rules = append(rules, RuleOption)
	}
	if f.desc.Kind == KindCode && len(f.desc.Schema) > 0 {
		rules = append(rules, RuleSchema)
	}
	return rules
}

func normalize(kind FieldKind, raw any) (any, error) {
	switch kind {
	case KindCheckbox:
		return normalizeCheckbox(raw)
	case KindCode:
		return normalizeCode(raw)
	case KindTextarea:
		return SanitizeText(stringify(raw)), nil
	default:
		return strings.TrimSpace(stringify(raw)), nil
	}
}

func normalizeCheckbox(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case CheckboxEvent:
		return v.Checked, nil
	case *CheckboxEvent:
		return v != nil && v.Checked, nil
	case map[string]any:
		checked, _ := v["checked"].(bool)
		return checked, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "true", "checked", "1", "yes":
			return true, nil
		}
		return false, nil
	case nil:
		return false, nil
	}
	return nil, fmt.Errorf("editor: unsupported checkbox input %T", raw)
}

func normalizeCode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case FormState:
		return map[string]any(v), nil
	case []byte:
		return decodeObject(string(v))
	case string:
		return decodeObject(v)
	}
	return nil, fmt.Errorf("editor: unsupported code input %T", raw)
}

func decodeObject(text string) (map[string]any, error) {
	if strings.TrimSpace(text) == "" {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if s, ok := v["value"].(string); ok {
			return s
		}
	}
	return fmt.Sprint(raw)
}

func dedupe(sorted []string) []string {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, s := range sorted[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

// Malformed reports whether the last input could not be normalized.
func (f *fieldController) Malformed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.malformed
}

type malformedReporter interface {
	Malformed() bool
}
