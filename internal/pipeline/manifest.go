// Package pipeline orchestrates a full forecast run: aggregation under each
// attribution scheme, extension under each growth source, the stacked
// methodology comparison, and occupation-level allocation with validation.
package pipeline

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Manifest declares the inputs of one forecast run.
type Manifest struct {
	History       HistoryInput       `yaml:"history"`
	SegmentLookup string             `yaml:"segment_lookup"`
	Attributions  []AttributionInput `yaml:"attributions"`
	Growths       []GrowthInput      `yaml:"growths"`
	Occupations   OccupationInputs   `yaml:"occupations"`
}

// HistoryInput locates the historical industry employment table. Exactly one
// of CSV or XLSX must be set.
type HistoryInput struct {
	CSV      string `yaml:"csv,omitempty"`
	XLSX     string `yaml:"xlsx,omitempty"`
	Sheet    string `yaml:"sheet,omitempty"`
	SkipRows int    `yaml:"skip_rows,omitempty"`
}

// AttributionInput is one attribution share table.
type AttributionInput struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Encoding string `yaml:"encoding,omitempty"`
}

// GrowthInput is one growth source: segment-level and stage-level YoY tables.
type GrowthInput struct {
	Name     string `yaml:"name"`
	Segments string `yaml:"segments"`
	Stages   string `yaml:"stages"`
}

// OccupationInputs are the staffing tables for occupation allocation.
type OccupationInputs struct {
	Base  string `yaml:"base"`
	Shift string `yaml:"shift"`
}

// LoadManifest reads a run manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read manifest %s", path)
	}

	var wrapper struct {
		Run Manifest `yaml:"run"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "pipeline: parse manifest")
	}

	m := &wrapper.Run
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the manifest declares a usable run.
func (m *Manifest) Validate() error {
	if m.History.CSV == "" && m.History.XLSX == "" {
		return eris.New("pipeline: manifest needs history.csv or history.xlsx")
	}
	if m.History.CSV != "" && m.History.XLSX != "" {
		return eris.New("pipeline: history.csv and history.xlsx are mutually exclusive")
	}
	if m.SegmentLookup == "" {
		return eris.New("pipeline: manifest needs segment_lookup")
	}
	if len(m.Attributions) == 0 {
		return eris.New("pipeline: manifest needs at least one attribution source")
	}
	seen := make(map[string]struct{})
	for _, a := range m.Attributions {
		if a.Name == "" || a.Path == "" {
			return eris.New("pipeline: attribution entries need name and path")
		}
		// Rendered methodology labels split at the first underscore, so an
		// underscore in the attribution name would not round-trip.
		if strings.Contains(a.Name, "_") {
			return eris.Errorf("pipeline: attribution source %q may not contain an underscore", a.Name)
		}
		if _, dup := seen[a.Name]; dup {
			return eris.Errorf("pipeline: duplicate attribution source %q", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	seen = make(map[string]struct{})
	for _, g := range m.Growths {
		if g.Name == "" || g.Segments == "" {
			return eris.New("pipeline: growth entries need name and segments")
		}
		if _, dup := seen[g.Name]; dup {
			return eris.Errorf("pipeline: duplicate growth source %q", g.Name)
		}
		seen[g.Name] = struct{}{}
	}
	return nil
}
