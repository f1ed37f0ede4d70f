package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ManifestVersion is the only manifest format version understood.
const ManifestVersion = "1"

// WidgetManifestDocument is a YAML manifest that declares extra widgets and
// the widgets placed on each view.
type WidgetManifestDocument struct {
	Version string                       `json:"version" yaml:"version"`
	Name    string                       `json:"name,omitempty" yaml:"name,omitempty"`
	Widgets []ManifestWidget             `json:"widgets,omitempty" yaml:"widgets,omitempty"`
	Layout  map[View][]ManifestPlacement `json:"layout,omitempty" yaml:"layout,omitempty"`
	Source  string                       `json:"-" yaml:"-"`
}

// ManifestWidget declares a widget. Uses names a registered widget whose
// provider serves the new one, so a manifest can add a titled chart without
// code.
type ManifestWidget struct {
	Definition WidgetDefinition `json:"definition" yaml:"definition"`
	Uses       string           `json:"uses,omitempty" yaml:"uses,omitempty"`
}

// ManifestPlacement puts a widget on a view.
type ManifestPlacement struct {
	ID            string         `json:"id" yaml:"id"`
	Widget        string         `json:"widget" yaml:"widget"`
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

// LoadManifestFile reads a manifest, registers its widgets and returns it.
func (r *Registry) LoadManifestFile(path string) (*WidgetManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers the manifest widgets. A widget that uses
// another must come after that widget's provider is registered.
func (r *Registry) LoadManifestDocument(doc *WidgetManifestDocument) error {
	if doc == nil {
		return errors.New("dashboard: manifest document is nil")
	}
	for _, widget := range doc.Widgets {
		code := widget.Definition.Code
		if err := r.RegisterDefinition(widget.Definition); err != nil {
			return fmt.Errorf("dashboard: register widget %s from %s: %w", code, doc.Source, err)
		}
		if widget.Uses == "" {
			continue
		}
		provider, ok := r.Provider(widget.Uses)
		if !ok {
			return fmt.Errorf("dashboard: widget %s uses %s, which has no provider", code, widget.Uses)
		}
		if err := r.RegisterProvider(code, provider); err != nil {
			return err
		}
	}
	return nil
}

// ReadManifest decodes a manifest file without registering it.
func ReadManifest(path string) (*WidgetManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from r. Unknown fields are rejected.
func DecodeManifest(r io.Reader) (*WidgetManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc WidgetManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = ManifestVersion
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the manifest shape. Whether placements resolve is checked
// later by Layout.Check against a registry.
func (doc *WidgetManifestDocument) Validate() error {
	if doc.Version != ManifestVersion {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	codes := make(map[string]bool, len(doc.Widgets))
	for idx, widget := range doc.Widgets {
		code := widget.Definition.Code
		switch {
		case code == "":
			return fmt.Errorf("dashboard: manifest widget at index %d is missing definition.code", idx)
		case widget.Definition.Name == "":
			return fmt.Errorf("dashboard: manifest widget %s missing definition.name", code)
		case codes[code]:
			return fmt.Errorf("dashboard: manifest duplicates widget code %s", code)
		case widget.Uses == code:
			return fmt.Errorf("dashboard: manifest widget %s uses itself", code)
		}
		codes[code] = true
	}

	placed := map[string]View{}
	for view, placements := range doc.Layout {
		if _, ok := view.Info(); !ok {
			return fmt.Errorf("dashboard: manifest layout names %w %q", ErrUnknownView, view)
		}
		for idx, p := range placements {
			if p.ID == "" || p.Widget == "" {
				return fmt.Errorf("dashboard: manifest layout %s entry %d needs id and widget", view, idx)
			}
			if prev, dup := placed[p.ID]; dup {
				return fmt.Errorf("dashboard: manifest places %s on both %s and %s", p.ID, prev, view)
			}
			placed[p.ID] = view
		}
	}
	return nil
}

// ViewLayout converts the placements into widget instances.
func (doc *WidgetManifestDocument) ViewLayout() Layout {
	layout := make(Layout, len(doc.Layout))
	for view, placements := range doc.Layout {
		instances := make([]WidgetInstance, 0, len(placements))
		for _, p := range placements {
			instances = append(instances, WidgetInstance{
				ID:            p.ID,
				DefinitionID:  p.Widget,
				View:          view,
				Configuration: p.Configuration,
			})
		}
		layout[view] = instances
	}
	return layout
}
