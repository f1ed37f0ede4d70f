package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ConfigValidator validates widget configuration against the definition schema.
type ConfigValidator interface {
	Validate(def WidgetDefinition, config map[string]any) error
}

// schemaSet compiles JSON schemas once per name.
type schemaSet struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

func newSchemaSet() *schemaSet {
	return &schemaSet{compiled: make(map[string]*jsonschema.Schema)}
}

func (s *schemaSet) compile(name string, schema map[string]any) (*jsonschema.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if compiled, ok := s.compiled[name]; ok {
		return compiled, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	url := name + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", name, err)
	}
	s.compiled[name] = compiled
	return compiled, nil
}

// validate checks value against the named schema. value is normalized through
// JSON so typed slices and ints validate like decoded request bodies.
func (s *schemaSet) validate(name string, schema map[string]any, value map[string]any) error {
	compiled, err := s.compile(name, schema)
	if err != nil {
		return err
	}
	doc := map[string]any{}
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("dashboard: marshal %s: %w", name, err)
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("dashboard: normalize %s: %w", name, err)
		}
	}
	return compiled.Validate(doc)
}

// JSONSchemaValidator validates widget configuration with jsonschema v5.
type JSONSchemaValidator struct {
	schemas *schemaSet
}

// NewJSONSchemaValidator builds an empty validator; schemas compile on first use.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{schemas: newSchemaSet()}
}

// Validate ensures config satisfies the widget schema. Widgets without a
// schema accept anything.
func (v *JSONSchemaValidator) Validate(def WidgetDefinition, config map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	if err := v.schemas.validate(def.Code, def.Schema, config); err != nil {
		return fmt.Errorf("dashboard: configuration for %s failed validation: %w", def.Code, err)
	}
	return nil
}

// panelParamSchemas describe the params each panel accepts from clients.
var panelParamSchemas = map[PanelID]map[string]any{
	PanelMarketIntel: objectSchema([]string{"channel"}, map[string]any{
		"channel": map[string]any{"type": "string", "minLength": 1, "maxLength": 120},
	}),
	PanelScan: objectSchema([]string{"channel"}, map[string]any{
		"channel": map[string]any{"type": "string", "minLength": 1, "maxLength": 120},
	}),
	PanelSEOAudit: objectSchema([]string{"domain"}, map[string]any{
		"domain": map[string]any{"type": "string", "minLength": 1, "maxLength": 253, "pattern": `^[^\s/]+(\.[^\s/]+)*$`},
	}),
	PanelSocial: objectSchema([]string{"topic"}, map[string]any{
		"topic":     map[string]any{"type": "string", "minLength": 1, "maxLength": 500},
		"platforms": map[string]any{"type": "string", "maxLength": 200},
	}),
}

func objectSchema(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"required":             required,
		"properties":           props,
		"additionalProperties": false,
	}
}

// ParamsValidator validates client supplied panel params.
type ParamsValidator struct {
	schemas *schemaSet
}

// NewParamsValidator builds a validator for every panel that accepts params.
func NewParamsValidator() *ParamsValidator {
	return &ParamsValidator{schemas: newSchemaSet()}
}

// Validate checks params against the panel schema. Panels without a schema
// take no params.
func (v *ParamsValidator) Validate(id PanelID, params map[string]any) error {
	schema, ok := panelParamSchemas[id]
	if !ok {
		if _, err := ParsePanelID(string(id)); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s takes no params", ErrInvalidParams, id)
	}
	if err := v.schemas.validate("panel."+string(id), schema, params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

type noopConfigValidator struct{}

func (noopConfigValidator) Validate(WidgetDefinition, map[string]any) error { return nil }
