package editor

// DatasetProviderOptions lists the dataset connectors.
func DatasetProviderOptions() []Option {
	return []Option{
		{Label: "Carto", Value: "cartodb"},
		{Label: "Esri feature service", Value: "featureservice"},
		{Label: "Google Earth Engine", Value: "gee"},
		{Label: "BigQuery", Value: "bigquery"},
		{Label: "CSV", Value: "csv"},
		{Label: "JSON", Value: "json"},
		{Label: "TSV", Value: "tsv"},
		{Label: "XML", Value: "xml"},
		{Label: "NEX-GDDP", Value: "nexgddp"},
		{Label: "WMS", Value: "wms"},
	}
}

// DatasetStep edits dataset metadata and its connector.
type DatasetStep struct {
	stepBase
}

// NewDatasetStep builds a dataset step.
func NewDatasetStep(constraints Constraints) *DatasetStep {
	return &DatasetStep{stepBase: newStepBase(constraints)}
}

// Kind implements Step.
func (s *DatasetStep) Kind() StepKind { return StepDataset }

// Render implements Step.
func (s *DatasetStep) Render(props StepProps) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.Reset()

	form := props.Form
	fs := Fieldset{Name: "dataset"}
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
		Options:  DatasetProviderOptions(),
		Value:    valueOf(form, "provider"),
		Disabled: props.ID != "",
	}, emit(props, "provider"))
	s.add(&fs, FieldDescriptor{
		Name:  "connectorUrl",
		Label: "Url data endpoint",
		Kind:  KindText,
		Rules: []string{RuleURL},
		Value: valueOf(form, "connectorUrl"),
	}, emit(props, "connectorUrl"))
	s.add(&fs, FieldDescriptor{
		Name:    "application",
		Kind:    KindText,
		Default: "rw",
		Value:   valueOf(form, "application"),
	}, emit(props, "application"))
	s.add(&fs, checkbox("published", "Do you want to set this dataset as published?", form), emit(props, "published"))
	s.add(&fs, checkbox("subscribable", "Do you want to allow users to subscribe to this dataset?", form), emit(props, "subscribable"))
	return View{Kind: StepDataset, Fieldsets: []Fieldset{fs}}
}
