// Package export writes evaluation results to disk and reads them back.
package export

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wolf-eval/internal/model"
)

// File names inside a results directory.
const (
	OutputsFile  = "llm_outputs.json"
	MetricsFile  = "metrics.json"
	ManifestFile = "manifest.yaml"
	WorkbookFile = "results.xlsx"
)

// WriteJSON writes the outcome rows and per-condition metrics into dir,
// creating it if needed. Absent prediction, hit, response and error fields
// are written as null.
func WriteJSON(dir string, rows []model.OutcomeRow, metrics map[model.Condition]model.MetricsEntry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "export: create results dir")
	}
	if rows == nil {
		rows = []model.OutcomeRow{}
	}
	if err := writeJSONFile(filepath.Join(dir, OutputsFile), rows); err != nil {
		return err
	}
	return writeJSONFile(filepath.Join(dir, MetricsFile), metrics)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", filepath.Base(path))
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "export: encode %s", filepath.Base(path))
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", filepath.Base(path))
	}
	return nil
}

// ReadRows loads the outcome rows written by WriteJSON. path may be the
// results directory or the outputs file itself.
func ReadRows(path string) ([]model.OutcomeRow, error) {
	var rows []model.OutcomeRow
	if err := readJSONFile(resolve(path, OutputsFile), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadMetrics loads the metrics file from a results directory.
func ReadMetrics(dir string) (map[model.Condition]model.MetricsEntry, error) {
	var metrics map[model.Condition]model.MetricsEntry
	if err := readJSONFile(resolve(dir, MetricsFile), &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "export: read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "export: decode %s", path)
	}
	return nil
}

func resolve(path, name string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, name)
	}
	return path
}
