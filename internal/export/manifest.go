package export

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/wolf-eval/internal/model"
)

// Manifest records how a results directory was produced.
type Manifest struct {
	RunID      string                        `yaml:"run_id"`
	Caller     string                        `yaml:"caller"`
	Provider   string                        `yaml:"provider"`
	Corpus     string                        `yaml:"corpus"`
	Games      int                           `yaml:"games"`
	Errors     int                           `yaml:"errors"`
	StartedAt  time.Time                     `yaml:"started_at"`
	FinishedAt time.Time                     `yaml:"finished_at"`
	Knobs      Knobs                         `yaml:"knobs"`
	Metrics    map[string]model.MetricsEntry `yaml:"metrics"`
}

// Knobs are the settings that affect results.
type Knobs struct {
	MaxGames          int     `yaml:"max_games"`
	MaxLines          int     `yaml:"max_lines"`
	MaxTurns          int     `yaml:"max_turns"`
	Concurrency       int     `yaml:"concurrency"`
	VoteWeight        float64 `yaml:"vote_weight"`
	DivineWolfWeight  float64 `yaml:"divine_wolf_weight"`
	DivineHumanWeight float64 `yaml:"divine_human_weight"`
	Epsilon           float64 `yaml:"epsilon"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
}

// MetricsByLabel keys metrics by condition label for YAML output.
func MetricsByLabel(metrics map[model.Condition]model.MetricsEntry) map[string]model.MetricsEntry {
	out := make(map[string]model.MetricsEntry, len(metrics))
	for c, m := range metrics {
		out[c.String()] = m
	}
	return out
}

// WriteManifest writes manifest.yaml into dir.
func WriteManifest(dir string, m Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "export: create results dir")
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "export: marshal manifest")
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return eris.Wrap(err, "export: write manifest")
	}
	return nil
}

// ReadManifest loads manifest.yaml from dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, eris.Wrap(err, "export: read manifest")
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "export: parse manifest")
	}
	return &m, nil
}
