package analytics

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	fixtureVersionV1 = "1"
	// FixtureVersion exposes the current fixture document format for tooling.
	FixtureVersion = fixtureVersionV1
)

// FixtureDocument is the YAML form of a fixture override file.
type FixtureDocument struct {
	Version  string   `yaml:"version"`
	Name     string   `yaml:"name,omitempty"`
	Fixtures Fixtures `yaml:"fixtures"`
	Source   string   `yaml:"-"`
}

// ReadFixtures loads a fixture document from disk.
func ReadFixtures(path string) (*FixtureDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("analytics: open fixtures %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeFixtures(f)
	if err != nil {
		return nil, fmt.Errorf("analytics: decode fixtures %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeFixtures reads a fixture document from any reader. Unknown keys are rejected.
func DecodeFixtures(r io.Reader) (*FixtureDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc FixtureDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("analytics: fixture document is empty")
		}
		return nil, fmt.Errorf("analytics: parse fixtures: %w", err)
	}
	if doc.Version == "" {
		doc.Version = fixtureVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the document version and the snapshot shape.
func (doc *FixtureDocument) Validate() error {
	if doc.Version != fixtureVersionV1 {
		return fmt.Errorf("analytics: unsupported fixture version %q", doc.Version)
	}
	for idx, metric := range doc.Fixtures.Snapshot.Metrics {
		if metric.Label == "" {
			return fmt.Errorf("analytics: metric at index %d is missing label", idx)
		}
		switch metric.Format {
		case FormatCurrency, FormatNumber, FormatPercentage:
		default:
			return fmt.Errorf("analytics: metric %s has unknown format %q", metric.Label, metric.Format)
		}
	}
	seen := make(map[string]struct{}, len(doc.Fixtures.Snapshot.ChannelPerformance))
	for _, row := range doc.Fixtures.Snapshot.ChannelPerformance {
		if row.Channel == "" {
			return fmt.Errorf("analytics: channel performance row is missing channel")
		}
		if _, dup := seen[row.Channel]; dup {
			return fmt.Errorf("analytics: channel %s listed twice", row.Channel)
		}
		seen[row.Channel] = struct{}{}
	}
	return nil
}

// Merge overlays the non-empty sections of the document onto base.
func (doc *FixtureDocument) Merge(base Fixtures) Fixtures {
	out := base.Clone()
	in := doc.Fixtures
	if len(in.Snapshot.Metrics) > 0 {
		out.Snapshot.Metrics = in.Snapshot.Metrics
	}
	if len(in.Snapshot.ChannelPerformance) > 0 {
		out.Snapshot.ChannelPerformance = in.Snapshot.ChannelPerformance
	}
	if len(in.Snapshot.Competitors) > 0 {
		out.Snapshot.Competitors = in.Snapshot.Competitors
	}
	if len(in.Snapshot.HistoricalData) > 0 {
		out.Snapshot.HistoricalData = in.Snapshot.HistoricalData
	}
	if len(in.SEOHistory) > 0 {
		out.SEOHistory = in.SEOHistory
	}
	if len(in.Keywords) > 0 {
		out.Keywords = in.Keywords
	}
	if len(in.Tasks) > 0 {
		out.Tasks = in.Tasks
	}
	if len(in.Posts) > 0 {
		out.Posts = in.Posts
	}
	if len(in.Mentions) > 0 {
		out.Mentions = in.Mentions
	}
	if len(in.Health) > 0 {
		out.Health = in.Health
	}
	return out
}
