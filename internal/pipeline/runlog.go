package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type runLog struct {
	RunID        string    `yaml:"run_id"`
	StartedAt    time.Time `yaml:"started_at"`
	FinishedAt   time.Time `yaml:"finished_at"`
	Attributions []string  `yaml:"attributions"`
	Growths      []string  `yaml:"growths"`
	Inputs       *Manifest `yaml:"inputs"`
	Outputs      []string  `yaml:"outputs"`
}

// writeRunManifest records what a run read and wrote, for provenance.
func writeRunManifest(path string, res *Result, m *Manifest, outputs []string) error {
	log := runLog{
		RunID:        res.RunID,
		StartedAt:    res.StartedAt,
		FinishedAt:   time.Now().UTC(),
		Attributions: res.Attributions,
		Growths:      res.Growths,
		Inputs:       m,
		Outputs:      outputs,
	}

	data, err := yaml.Marshal(&log)
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal run log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", path)
	}
	return nil
}
