package editor

import (
	"fmt"
	"strings"
)

// Mode is a mutually exclusive configuration-authoring variant of a step.
type Mode string

const (
	// ModeAdvanced edits the raw configuration object.
	ModeAdvanced Mode = "advanced"
	// ModeEditor delegates authoring to the external widget editor.
	ModeEditor Mode = "editor"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeAdvanced || m == ModeEditor
}

// ParseMode converts user input into a Mode.
func ParseMode(raw string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
	return m, nil
}

// ModeOptions lists the switch options in display order.
func ModeOptions() []Option {
	return []Option{
		{Label: "Advanced", Value: string(ModeAdvanced)},
		{Label: "Editor", Value: string(ModeEditor)},
	}
}

// StepKind names the resource a step edits.
type StepKind string

const (
	StepWidget  StepKind = "widget"
	StepLayer   StepKind = "layer"
	StepDataset StepKind = "dataset"
)

// Option is a select choice.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Viewer identifies the signed-in admin user.
type Viewer struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Token  string `json:"-"`
}

// IsAdmin reports whether the viewer has the ADMIN role.
func (v Viewer) IsAdmin() bool {
	return strings.EqualFold(v.Role, "ADMIN")
}
