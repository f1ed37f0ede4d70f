package dashboard

import (
	"bytes"
	_ "embed"
	"fmt"
	"maps"
)

//go:embed manifests/default.yaml
var defaultManifest []byte

// Layout lists the widgets shown on each view, in display order.
type Layout map[View][]WidgetInstance

// DefaultManifest decodes the built-in view layout manifest.
func DefaultManifest() (*WidgetManifestDocument, error) {
	doc, err := DecodeManifest(bytes.NewReader(defaultManifest))
	if err != nil {
		return nil, err
	}
	doc.Source = "manifests/default.yaml"
	return doc, nil
}

// DefaultLayout returns the built-in view layout.
func DefaultLayout() Layout {
	doc, err := DefaultManifest()
	if err != nil {
		panic(fmt.Sprintf("dashboard: embedded manifest: %v", err))
	}
	return doc.ViewLayout()
}

// Widgets returns a copy of the placements on view.
func (l Layout) Widgets(view View) []WidgetInstance {
	src := l[view]
	out := make([]WidgetInstance, len(src))
	for i, w := range src {
		w.Configuration = maps.Clone(w.Configuration)
		out[i] = w
	}
	return out
}

// Merge returns a copy of l with the views of other replacing its own.
func (l Layout) Merge(other Layout) Layout {
	out := maps.Clone(l)
	if out == nil {
		out = Layout{}
	}
	maps.Copy(out, other)
	return out
}

// Check verifies every placement resolves to a definition and provider and
// that its configuration satisfies the definition schema.
func (l Layout) Check(reg ProviderRegistry, validator ConfigValidator) error {
	if validator == nil {
		validator = noopConfigValidator{}
	}
	for view, widgets := range l {
		for _, w := range widgets {
			def, ok := reg.Definition(w.DefinitionID)
			if !ok {
				return fmt.Errorf("dashboard: widget %s on %s: definition %s not registered", w.ID, view, w.DefinitionID)
			}
			if _, ok := reg.Provider(w.DefinitionID); !ok {
				return fmt.Errorf("dashboard: widget %s on %s: no provider for %s", w.ID, view, w.DefinitionID)
			}
			if err := validator.Validate(def, w.Configuration); err != nil {
				return fmt.Errorf("dashboard: widget %s on %s: %w", w.ID, view, err)
			}
		}
	}
	return nil
}
