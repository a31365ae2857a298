package artifact

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"datascope-hq/datascope/pkg/analysis"
	"datascope-hq/datascope/pkg/config"
)

// Artifact file names within a run directory.
const (
	FileMetrics        = "metrics.csv"
	FileAnalysisLog    = "analysis_log.json"
	FileReproduce      = "reproduce.sql"
	FileInterpretation = "interpretation.json"
	FileAnomalies      = "anomalies.json"
	FileResult         = "result.json"
	FileReport         = "report.md"
	FileManifest       = "manifest.json"
)

// Manifest describes the artifacts written for one run.
type Manifest struct {
	RunID     string    `json:"run_id"`
	Policy    string    `json:"policy"`
	Dir       string    `json:"dir"`
	Files     []string  `json:"files"`
	CreatedAt time.Time `json:"created_at"`
}

// Writer persists run results as artifact directories.
type Writer struct {
	cfg    config.ArtifactsConfig
	logger *slog.Logger
}

// NewWriter creates an artifact writer. The logger may be nil, in which case
// the default logger is used.
func NewWriter(cfg config.ArtifactsConfig, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{cfg: cfg, logger: logger}
}

// Write persists all artifacts for the given result under
// <dir>/<run_id>/ and returns the manifest. The manifest itself is written
// last, so its presence marks a complete artifact directory.
func (w *Writer) Write(result *analysis.Result) (*Manifest, error) {
	dir := filepath.Join(w.cfg.Dir, result.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory %q: %w", dir, err)
	}

	manifest := &Manifest{
		RunID:     result.RunID,
		Policy:    result.Policy,
		Dir:       dir,
		CreatedAt: time.Now().UTC(),
	}

	if err := w.writeMetricsCSV(dir, result.Metrics); err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, FileMetrics)

	if err := w.writeJSON(dir, FileAnalysisLog, result.Log); err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, FileAnalysisLog)

	if err := w.writeReproduceSQL(dir, result.Log.Queries); err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, FileReproduce)

	if err := w.writeJSON(dir, FileInterpretation, result.Interpretation); err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, FileInterpretation)

	envelope := map[string]any{"anomalies_normalized": result.AnomaliesNormalized}
	if err := w.writeJSON(dir, FileAnomalies, envelope); err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, FileAnomalies)

	if err := w.writeJSON(dir, FileResult, result); err != nil {
		return nil, err
	}
	manifest.Files = append(manifest.Files, FileResult)

	if w.cfg.Report {
		if err := w.writeFile(dir, FileReport, []byte(RenderReport(result))); err != nil {
			return nil, err
		}
		manifest.Files = append(manifest.Files, FileReport)
	}

	sort.Strings(manifest.Files)
	if err := w.writeJSON(dir, FileManifest, manifest); err != nil {
		return nil, err
	}

	w.logger.Info("artifacts written",
		"run_id", result.RunID,
		"dir", dir,
		"files", len(manifest.Files))
	return manifest, nil
}

// writeMetricsCSV writes the metric rows in emission order as
// section,key,value records.
func (w *Writer) writeMetricsCSV(dir string, metrics []analysis.MetricRow) error {
	var sb strings.Builder
	cw := csv.NewWriter(&sb)
	if err := cw.Write([]string{"section", "key", "value"}); err != nil {
		return fmt.Errorf("writing metrics header: %w", err)
	}
	for _, m := range metrics {
		if err := cw.Write([]string{m.Section, m.Key, m.Value}); err != nil {
			return fmt.Errorf("writing metric row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing metrics CSV: %w", err)
	}
	return w.writeFile(dir, FileMetrics, []byte(sb.String()))
}

// writeReproduceSQL persists the executed query text verbatim, one query
// per line, exactly as recorded in the analysis log.
func (w *Writer) writeReproduceSQL(dir string, queries []string) error {
	var sb strings.Builder
	for _, q := range queries {
		sb.WriteString(q)
		sb.WriteString("\n")
	}
	return w.writeFile(dir, FileReproduce, []byte(sb.String()))
}

func (w *Writer) writeJSON(dir, name string, v any) error {
	var (
		data []byte
		err  error
	)
	if w.cfg.PrettyJSON {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return w.writeFile(dir, name, append(data, '\n'))
}

func (w *Writer) writeFile(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %q: %w", path, err)
	}
	return nil
}
