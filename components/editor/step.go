package editor

import (
	"sync"

	"github.com/goliatone/go-rwadmin/components/preview"
)

// StepProps is everything the parent hands a step for one render pass. Form is
// read-only; edits come back through OnChange as partial updates.
type StepProps struct {
	Form            FormState
	Datasets        []Option
	Mode            Mode
	OnChange        func(partial FormState)
	OnModeChange    func(mode Mode)
	OnChangeDataset func(dataset string)
	ID              string
	User            Viewer
	Query           map[string]string
	ShowEditor      bool
}

// Fieldset is a named group of inputs.
type Fieldset struct {
	Name   string            `json:"name"`
	Fields []FieldDescriptor `json:"fields"`
	Notice string            `json:"notice,omitempty"`
}

// View is the derived UI of one render pass.
type View struct {
	Kind           StepKind        `json:"kind"`
	Mode           Mode            `json:"mode,omitempty"`
	Fieldsets      []Fieldset      `json:"fieldsets"`
	ShowModeSwitch bool            `json:"show_mode_switch,omitempty"`
	ModeOptions    []Option        `json:"mode_options,omitempty"`
	Preview        preview.Kind    `json:"preview,omitempty"`
	PreviewConfig  map[string]any  `json:"preview_config,omitempty"`
	ExternalEditor *ExternalEditor `json:"external_editor,omitempty"`
	ConfigStatus   *ConfigStatus   `json:"config_status,omitempty"`
}

// ExternalEditor describes the widget editor mount shown in editor mode.
type ExternalEditor struct {
	DatasetID   string `json:"dataset_id"`
	WidgetID    string `json:"widget_id,omitempty"`
	Application string `json:"application"`
}

// Field returns the descriptor called name from any fieldset.
func (v View) Field(name string) (FieldDescriptor, bool) {
	for _, fs := range v.Fieldsets {
		for _, desc := range fs.Fields {
			if desc.Name == name {
				return desc, true
			}
		}
	}
	return FieldDescriptor{}, false
}

// Step is one logical editing step. Render rebuilds the step's registry from
// scratch and returns the derived UI.
type Step interface {
	Kind() StepKind
	Render(props StepProps) View
	Registry() *Registry
}

type stepBase struct {
	mu          sync.Mutex
	registry    *Registry
	constraints Constraints
}

func newStepBase(constraints Constraints) stepBase {
	if constraints == nil {
		constraints = DefaultConstraints(nil)
	}
	return stepBase{registry: NewRegistry(), constraints: constraints}
}

func (s *stepBase) Registry() *Registry { return s.registry }

// add creates and registers a field, appending its descriptor to fs.
func (s *stepBase) add(fs *Fieldset, desc FieldDescriptor, onChange ChangeFunc) {
	field, err := NewField(s.registry, s.constraints, desc, onChange)
	if err != nil {
		return
	}
	d := field.Descriptor()
	d.Errors = field.Validate()
	fs.Fields = append(fs.Fields, d)
}

// emit forwards a single-key partial.
func emit(props StepProps, key string) ChangeFunc {
	return func(value any) {
		if props.OnChange != nil {
			props.OnChange(FormState{key: value})
		}
	}
}

func checkbox(name, label string, form FormState) FieldDescriptor {
	return FieldDescriptor{
		Name:  name,
		Label: label,
		Kind:  KindCheckbox,
		Value: form.Bool(name),
	}
}

func valueOf(form FormState, key string) any {
	if v, ok := form[key]; ok {
		return v
	}
	return nil
}
