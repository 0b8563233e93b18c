package editor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ConfigValidator validates configuration objects against a JSON schema.
type ConfigValidator interface {
	Validate(name string, schema map[string]any, config map[string]any) error
}

// JSONSchemaValidator compiles schemas once per name and validates configuration maps.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate ensures config satisfies schema. An empty schema accepts anything.
func (v *JSONSchemaValidator) Validate(name string, schema map[string]any, config map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	compiled, err := v.schemaFor(name, schema)
	if err != nil {
		return err
	}
	payload := map[string]any{}
	if config != nil {
		data, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("editor: marshal %s: %w", name, err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("editor: normalize %s: %w", name, err)
		}
	}
	if err := compiled.Validate(payload); err != nil {
		return fmt.Errorf("editor: %s failed validation: %w", name, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(name string, schema map[string]any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("editor: marshal schema %s: %w", name, err)
	}
	key := name + ":" + string(data)
	v.mu.RLock()
	compiled, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("editor: load schema %s: %w", name, err)
	}
	compiled, err = compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("editor: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[key] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// ValidationIssues flattens a schema validation error into readable messages.
func ValidationIssues(err error) []string {
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	seen := map[string]bool{}
	var issues []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "/"
			}
			msg := strings.TrimSpace(location + ": " + e.Message)
			if !seen[msg] {
				seen[msg] = true
				issues = append(issues, msg)
			}
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	sort.Strings(issues)
	return issues
}
