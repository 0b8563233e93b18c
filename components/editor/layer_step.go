package editor

import "strings"

// ConfigStatus is the outcome of an explicit layer config verification.
type ConfigStatus struct {
	Valid  bool     `json:"valid"`
	Title  string   `json:"title"`
	Errors []string `json:"errors,omitempty"`
}

const (
	layerConfigValid   = "Layer config valid"
	layerConfigInvalid = "Layer config not valid!"
)

// LayerProviderOptions lists the layer providers.
func LayerProviderOptions() []Option {
	return []Option{
		{Label: "Carto", Value: "cartodb"},
		{Label: "Esri feature service", Value: "featureservice"},
		{Label: "Google Earth Engine", Value: "gee"},
		{Label: "Leaflet", Value: "leaflet"},
		{Label: "NEX-GDDP", Value: "nexgddp"},
		{Label: "LOCA", Value: "loca"},
		{Label: "WMS", Value: "wms"},
	}
}

// LayerStep edits a map layer.
type LayerStep struct {
	stepBase
	validator ConfigValidator
	schema    map[string]any
	status    *ConfigStatus
}

// NewLayerStep builds a layer step. schema, when set, is checked against
// layerConfig on every validation and by VerifyConfig.
func NewLayerStep(validator ConfigValidator, schema map[string]any, constraints Constraints) *LayerStep {
	if validator == nil {
		validator = NewJSONSchemaValidator()
	}
	if constraints == nil {
		constraints = DefaultConstraints(validator)
	}
	return &LayerStep{
		stepBase:  newStepBase(constraints),
		validator: validator,
		schema:    schema,
	}
}

// Kind implements Step.
func (s *LayerStep) Kind() StepKind { return StepLayer }

// Render implements Step.
func (s *LayerStep) Render(props StepProps) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.Reset()

	form := props.Form
	fs := Fieldset{Name: "layer"}
	if props.ID == "" {
		s.add(&fs, FieldDescriptor{
			Name:     "dataset",
			Kind:     KindSelect,
			Required: true,
			Options:  props.Datasets,
			Value:    valueOf(form, "dataset"),
		}, func(value any) {
			dataset, _ := value.(string)
			switch {
			case props.OnChangeDataset != nil:
				props.OnChangeDataset(dataset)
			case props.OnChange != nil:
				props.OnChange(FormState{"dataset": dataset})
			}
		})
	}
	s.add(&fs, FieldDescriptor{
		Name:     "name",
		Label:    "Title",
		Kind:     KindText,
		Required: true,
		Value:    valueOf(form, "name"),
	}, emit(props, "name"))
	s.add(&fs, FieldDescriptor{
		Name:     "provider",
		Kind:     KindSelect,
		Required: true,
		Options:  LayerProviderOptions(),
		Value:    valueOf(form, "provider"),
	}, emit(props, "provider"))
	s.add(&fs, FieldDescriptor{
		Name:  "description",
		Kind:  KindTextarea,
		Value: valueOf(form, "description"),
	}, emit(props, "description"))
	s.add(&fs, FieldDescriptor{
		Name:   "layerConfig",
		Label:  "Layer config",
		Kind:   KindCode,
		Rules:  []string{RuleJSON},
		Schema: s.schema,
		Value:  valueOf(form, "layerConfig"),
	}, emit(props, "layerConfig"))
	s.add(&fs, FieldDescriptor{
		Name:  "legendConfig",
		Label: "Legend config",
		Kind:  KindCode,
		Rules: []string{RuleJSON},
		Value: valueOf(form, "legendConfig"),
	}, emit(props, "legendConfig"))
	s.add(&fs, checkbox("default", "Do you want to set this layer as the default one. (Only one default layer per dataset is allowed at a time)", form), emit(props, "default"))

	view := View{Kind: StepLayer, Fieldsets: []Fieldset{fs}}
	if s.status != nil {
		status := *s.status
		view.ConfigStatus = &status
	}
	return view
}

// VerifyConfig checks layerConfig explicitly and keeps the status for the
// following renders.
func (s *LayerStep) VerifyConfig(form FormState) ConfigStatus {
	status := s.verify(form["layerConfig"])
	s.mu.Lock()
	s.status = &status
	s.mu.Unlock()
	return status
}

func (s *LayerStep) verify(raw any) ConfigStatus {
	normalized, err := normalizeCode(raw)
	if err != nil {
		return ConfigStatus{Title: layerConfigInvalid, Errors: []string{strings.TrimSpace(err.Error())}}
	}
	cfg, _ := normalized.(map[string]any)
	if len(cfg) == 0 {
		return ConfigStatus{Title: layerConfigInvalid, Errors: []string{"layerConfig is empty"}}
	}
	if err := s.validator.Validate("layerConfig", s.schema, cfg); err != nil {
		return ConfigStatus{Title: layerConfigInvalid, Errors: ValidationIssues(err)}
	}
	return ConfigStatus{Valid: true, Title: layerConfigValid}
}
