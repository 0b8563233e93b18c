package editor

import "github.com/goliatone/go-rwadmin/components/preview"

const (
	envPreproduction = "preproduction"
	envProduction    = "production"

	freezeNotice = "This widget has been frozen and cannot be modified..."
	envHint      = `Choose "preproduction" to see this widget only as admin, "production" option will show it in public site.`
)

// EnvOptions lists the publishing environments.
func EnvOptions() []Option {
	return []Option{
		{Label: "Pre-production", Value: envPreproduction},
		{Label: "Production", Value: envProduction},
	}
}

// WidgetStep edits a widget: metadata, flags and its configuration.
type WidgetStep struct {
	stepBase
	templates *TemplateCatalog
}

// NewWidgetStep builds a widget step with a fresh registry.
func NewWidgetStep(templates *TemplateCatalog, constraints Constraints) *WidgetStep {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &WidgetStep{stepBase: newStepBase(constraints), templates: templates}
}

// Kind implements Step.
func (s *WidgetStep) Kind() StepKind { return StepWidget }

// EffectiveDataset returns the form dataset, falling back to the query.
func EffectiveDataset(props StepProps) string {
	if ds := props.Form.String("dataset"); ds != "" {
		return ds
	}
	return props.Query["dataset"]
}

// Render implements Step.
func (s *WidgetStep) Render(props StepProps) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.Reset()

	form := props.Form
	dataset := EffectiveDataset(props)
	mode := props.Mode
	if !mode.Valid() {
		mode = ModeAdvanced
	}
	view := View{Kind: StepWidget, Mode: mode}

	main := Fieldset{Name: "widget"}
	s.add(&main, FieldDescriptor{
		Name:     "dataset",
		Kind:     KindSelect,
		Required: true,
		Options:  props.Datasets,
		Default:  props.Query["dataset"],
		Value:    dataset,
		Disabled: props.ID != "",
	}, func(value any) {
		if props.OnChange != nil {
			props.OnChange(FormState{"dataset": value, "widgetConfig": map[string]any{}})
		}
	})
	s.add(&main, FieldDescriptor{
		Name:     "name",
		Kind:     KindText,
		Required: true,
		Value:    valueOf(form, "name"),
	}, emit(props, "name"))
	s.add(&main, FieldDescriptor{
		Name:  "description",
		Kind:  KindTextarea,
		Value: valueOf(form, "description"),
	}, emit(props, "description"))
	if props.User.IsAdmin() {
		s.add(&main, FieldDescriptor{
			Name:    "env",
			Label:   "Environment",
			Kind:    KindSelect,
			Options: EnvOptions(),
			Default: envPreproduction,
			Value:   valueOf(form, "env"),
			Hint:    envHint,
		}, emit(props, "env"))
	}
	s.add(&main, checkbox("published", "Do you want to set this widget as published?", form), emit(props, "published"))
	s.add(&main, checkbox("default", "Do you want to set this widget as default?", form), emit(props, "default"))
	s.add(&main, checkbox("defaultEditableWidget", "Do you want to set this widget as the default editable widget?", form), emit(props, "defaultEditableWidget"))
	freezeLabel := "Do you want to freeze this widget?"
	if props.ID != "" {
		freezeLabel = "Freeze"
	}
	s.add(&main, checkbox("freeze", freezeLabel, form), emit(props, "freeze"))
	if form.Bool("freeze") && props.ID != "" {
		main.Notice = freezeNotice
	}
	view.Fieldsets = append(view.Fieldsets, main)

	config := form.Map("widgetConfig")
	switch {
	case dataset != "" && props.ShowEditor:
		view.ShowModeSwitch = true
		view.ModeOptions = ModeOptions()
		editor := Fieldset{Name: "editor"}
		if mode == ModeEditor {
			view.ExternalEditor = &ExternalEditor{
				DatasetID:   dataset,
				WidgetID:    props.ID,
				Application: "rw",
			}
		} else {
			s.add(&editor, FieldDescriptor{
				Name:    "template",
				Kind:    KindSelect,
				Options: s.templates.Options(),
			}, func(value any) {
				id, _ := value.(string)
				if props.OnChange != nil {
					props.OnChange(FormState{"widgetConfig": s.templates.Config(id)})
				}
			})
			s.add(&editor, FieldDescriptor{
				Name:    "widgetConfig",
				Label:   "Widget config",
				Kind:    KindCode,
				Rules:   []string{RuleJSON},
				Default: map[string]any{},
				Value:   valueOf(form, "widgetConfig"),
			}, emit(props, "widgetConfig"))
			view.Preview = preview.Detect(config)
			view.PreviewConfig = config
		}
		view.Fieldsets = append(view.Fieldsets, editor)
	case dataset != "" && !props.ShowEditor:
		view.Preview = preview.Detect(config)
		view.PreviewConfig = config
	}
	return view
}
