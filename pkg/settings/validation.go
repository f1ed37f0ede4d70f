package settings

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed settings.schema.json
var schemaSource string

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("settings: invalid settings")

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func settingsSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("settings.schema.json", schemaSource)
	})
	return compiledSchema, schemaErr
}

// Validate checks s against the settings schema and rejects duplicate ids.
func Validate(s Settings) error {
	schema, err := settingsSchema()
	if err != nil {
		return fmt.Errorf("settings: compile schema: %w", err)
	}
	data, err := json.Marshal(s.normalized())
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("settings: normalize: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	seen := map[string]struct{}{}
	for _, conn := range s.Connections {
		if _, dup := seen[conn.ID]; dup {
			return fmt.Errorf("%w: duplicate connection id %s", ErrInvalid, conn.ID)
		}
		seen[conn.ID] = struct{}{}
	}
	seen = map[string]struct{}{}
	for _, comp := range s.Competitors {
		if _, dup := seen[comp.ID]; dup {
			return fmt.Errorf("%w: duplicate competitor id %s", ErrInvalid, comp.ID)
		}
		seen[comp.ID] = struct{}{}
	}
	return nil
}

// normalized replaces nil lists so they encode as empty arrays.
func (s Settings) normalized() Settings {
	if s.Connections == nil {
		s.Connections = []Connection{}
	}
	if s.Competitors == nil {
		s.Competitors = []Competitor{}
	}
	return s
}
