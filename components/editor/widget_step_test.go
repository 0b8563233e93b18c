package editor

import (
	"testing"

	"github.com/goliatone/go-rwadmin/components/preview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type partialRecorder struct {
	partials []FormState
}

func (r *partialRecorder) props(form FormState) StepProps {
	return StepProps{
		Form:       form,
		Datasets:   []Option{{Label: "Forest", Value: "ds-1"}, {Label: "Water", Value: "ds-2"}},
		Mode:       ModeAdvanced,
		OnChange:   func(p FormState) { r.partials = append(r.partials, p) },
		Query:      map[string]string{},
		ShowEditor: true,
	}
}

func fieldOf(t *testing.T, step Step, name string) Field {
	t.Helper()
	field, ok := step.Registry().Get(name)
	require.True(t, ok, "field %s not registered", name)
	return field
}

func TestWidgetStepDatasetChangeResetsConfig(t *testing.T) {
	rec := &partialRecorder{}
	step := NewWidgetStep(nil, nil)
	step.Render(rec.props(FormState{"widgetConfig": map[string]any{"data": []any{}}}))

	require.NoError(t, fieldOf(t, step, "dataset").OnChange("ds-2"))
	require.Len(t, rec.partials, 1)
	assert.Equal(t, FormState{"dataset": "ds-2", "widgetConfig": map[string]any{}}, rec.partials[0])
}

func TestWidgetStepPartialsCarryOnlyChangedKey(t *testing.T) {
	rec := &partialRecorder{}
	step := NewWidgetStep(nil, nil)
	step.Render(rec.props(FormState{"name": "old", "dataset": "ds-1"}))

	require.NoError(t, fieldOf(t, step, "name").OnChange("  New name "))
	require.NoError(t, fieldOf(t, step, "published").OnChange(CheckboxEvent{Checked: true}))
	assert.Equal(t, []FormState{{"name": "New name"}, {"published": true}}, rec.partials)
}

func TestWidgetStepDatasetFromQueryAndDisabledWhenEditing(t *testing.T) {
	rec := &partialRecorder{}
	props := rec.props(FormState{})
	props.Query = map[string]string{"dataset": "ds-1"}
	props.ID = "w-1"
	step := NewWidgetStep(nil, nil)
	view := step.Render(props)

	desc, ok := view.Field("dataset")
	require.True(t, ok)
	assert.Equal(t, "ds-1", desc.Value)
	assert.True(t, desc.Disabled)
	assert.ErrorIs(t, fieldOf(t, step, "dataset").OnChange("ds-2"), ErrFieldDisabled)
	assert.True(t, view.ShowModeSwitch)
}

func TestWidgetStepEnvOnlyForAdmins(t *testing.T) {
	rec := &partialRecorder{}
	step := NewWidgetStep(nil, nil)

	view := step.Render(rec.props(FormState{}))
	_, ok := view.Field("env")
	assert.False(t, ok)

	props := rec.props(FormState{})
	props.User = Viewer{UserID: "u-1", Role: "ADMIN"}
	view = step.Render(props)
	desc, ok := view.Field("env")
	require.True(t, ok)
	assert.Equal(t, envPreproduction, desc.Value)
	assert.Equal(t, "Environment", desc.Label)
}

func TestWidgetStepEditorGroupNeedsDataset(t *testing.T) {
	rec := &partialRecorder{}
	step := NewWidgetStep(nil, nil)

	view := step.Render(rec.props(FormState{}))
	assert.False(t, view.ShowModeSwitch)
	assert.Empty(t, view.Preview)
	_, ok := view.Field("widgetConfig")
	assert.False(t, ok)

	view = step.Render(rec.props(FormState{"dataset": "ds-1", "widgetConfig": map[string]any{"type": "embed", "url": "https://x"}}))
	assert.True(t, view.ShowModeSwitch)
	assert.Equal(t, ModeOptions(), view.ModeOptions)
	assert.Equal(t, preview.KindFrame, view.Preview)
	_, ok = view.Field("widgetConfig")
	assert.True(t, ok)
	_, ok = view.Field("template")
	assert.True(t, ok)
}

func TestWidgetStepEditorModeShowsExternalEditor(t *testing.T) {
	rec := &partialRecorder{}
	props := rec.props(FormState{"dataset": "ds-1"})
	props.Mode = ModeEditor
	props.ID = "w-9"
	step := NewWidgetStep(nil, nil)
	view := step.Render(props)

	require.NotNil(t, view.ExternalEditor)
	assert.Equal(t, "ds-1", view.ExternalEditor.DatasetID)
	assert.Equal(t, "w-9", view.ExternalEditor.WidgetID)
	assert.Empty(t, view.Preview)
	_, ok := view.Field("widgetConfig")
	assert.False(t, ok)
}

func TestWidgetStepWithoutEditorShowsBarePreview(t *testing.T) {
	rec := &partialRecorder{}
	props := rec.props(FormState{"dataset": "ds-1", "widgetConfig": map[string]any{"data": []any{}}})
	props.ShowEditor = false
	view := NewWidgetStep(nil, nil).Render(props)

	assert.False(t, view.ShowModeSwitch)
	assert.Equal(t, preview.KindChart, view.Preview)
}

func TestWidgetStepTemplateSelectEmitsConfig(t *testing.T) {
	rec := &partialRecorder{}
	step := NewWidgetStep(DefaultTemplates(), nil)
	step.Render(rec.props(FormState{"dataset": "ds-1"}))

	require.NoError(t, fieldOf(t, step, "template").OnChange("embed"))
	require.NoError(t, fieldOf(t, step, "template").OnChange("missing"))
	require.Len(t, rec.partials, 2)
	assert.Equal(t, map[string]any{"type": "embed", "url": ""}, rec.partials[0]["widgetConfig"])
	assert.Equal(t, map[string]any{}, rec.partials[1]["widgetConfig"])
}

func TestWidgetStepFreezeNotice(t *testing.T) {
	rec := &partialRecorder{}
	props := rec.props(FormState{"freeze": true})
	step := NewWidgetStep(nil, nil)

	view := step.Render(props)
	assert.Empty(t, view.Fieldsets[0].Notice)

	props.ID = "w-1"
	view = step.Render(props)
	assert.Equal(t, freezeNotice, view.Fieldsets[0].Notice)
}

func TestWidgetStepValidation(t *testing.T) {
	rec := &partialRecorder{}
	step := NewWidgetStep(nil, nil)
	step.Render(rec.props(FormState{}))
	assert.Equal(t, map[string][]string{
		"dataset": {RuleRequired},
		"name":    {RuleRequired},
	}, step.Registry().ValidateAll())
}
