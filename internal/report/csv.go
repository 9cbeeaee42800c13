package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/gaitbench/internal/experiment"
)

const TimestampLayout = "2006_01_02__15_04_05"

// CSVExporter writes one file per result with a "row,col" header and one
// x,z row per sample.
type CSVExporter struct {
	dir    string
	stamp  string
	logger *slog.Logger
}

func NewCSVExporter(dir string, ts time.Time, logger *slog.Logger) *CSVExporter {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = "."
	}
	return &CSVExporter{dir: dir, stamp: ts.Format(TimestampLayout), logger: logger}
}

// FileName is "<timestamp>_results<index>_w=<label>.csv". Path separators
// in the label are replaced so the file stays in the output directory.
func (e *CSVExporter) FileName(index int, label string) string {
	safe := strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(label)
	return fmt.Sprintf("%s_results%d_w=%s.csv", e.stamp, index, safe)
}

// Export writes result and returns the file path. Errors are logged before
// being returned.
func (e *CSVExporter) Export(result experiment.Result) (string, error) {
	path := filepath.Join(e.dir, e.FileName(result.Index, result.Label))
	if err := WriteTrajectory(path, result.Trajectory); err != nil {
		e.logger.Warn("csv export failed", "experiment", result.Label, "path", path, "error", err)
		return "", err
	}
	e.logger.Info("csv exported", "experiment", result.Label, "path", path, "rows", len(result.Trajectory))
	return path, nil
}

// WriteTrajectory writes tr as "row,col" CSV, creating parent directories.
func WriteTrajectory(path string, tr experiment.Trajectory) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"row", "col"}); err != nil {
		return err
	}
	for _, p := range tr {
		row := []string{
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Z, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadTrajectory parses a file written by Export.
func ReadTrajectory(path string) (experiment.Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return experiment.Trajectory{}, nil
	}

	tr := make(experiment.Trajectory, 0, len(records)-1)
	for i, rec := range records[1:] {
		x, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		z, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		tr = append(tr, experiment.Point{X: x, Z: z})
	}
	return tr, nil
}
