package report

import (
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/gaitbench/internal/experiment"
)

// Options are fixed once per harness run.
type Options struct {
	OutputDir string
	Timestamp time.Time
	SaveCSV   bool
}

// Aggregator keeps results in the order they completed and optionally
// writes each one to CSV as it arrives.
type Aggregator struct {
	mu       sync.Mutex
	results  []experiment.Result
	exporter *CSVExporter
	written  []string
}

func NewAggregator(opts Options, logger *slog.Logger) *Aggregator {
	a := &Aggregator{}
	if opts.SaveCSV {
		a.exporter = NewCSVExporter(opts.OutputDir, opts.Timestamp, logger)
	}
	return a
}

// Add records result. A CSV export failure is logged by the exporter and
// does not drop the result.
func (a *Aggregator) Add(result experiment.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.results = append(a.results, result)
	if a.exporter == nil {
		return
	}
	if path, err := a.exporter.Export(result); err == nil {
		a.written = append(a.written, path)
	}
}

func (a *Aggregator) Results() []experiment.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]experiment.Result(nil), a.results...)
}

// Written lists the CSV files exported so far.
func (a *Aggregator) Written() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.written...)
}
