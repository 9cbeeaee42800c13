package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/gaitbench/internal/experiment"
	"github.com/san-kum/gaitbench/internal/logging"
)

var stamp = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

func sample(index int, label string, n int) experiment.Result {
	tr := make(experiment.Trajectory, n)
	for i := range tr {
		tr[i] = experiment.Point{X: float64(i) * 0.5, Z: -float64(i) * 0.25}
	}
	return experiment.Result{Index: index, Label: label, Policy: "sine", Trajectory: tr, Steps: n}
}

func TestCSVFileName(t *testing.T) {
	e := NewCSVExporter(t.TempDir(), stamp, logging.Discard())

	tests := []struct {
		index int
		label string
		want  string
	}{
		{0, "Pure Sinusoid", "2024_03_05__14_07_09_results0_w=Pure Sinusoid.csv"},
		{2, "Nengo LIF (0.3)", "2024_03_05__14_07_09_results2_w=Nengo LIF (0.3).csv"},
		{1, "a/b", "2024_03_05__14_07_09_results1_w=a_b.csv"},
	}

	for _, tt := range tests {
		if got := e.FileName(tt.index, tt.label); got != tt.want {
			t.Errorf("FileName(%d, %q) = %q, want %q", tt.index, tt.label, got, tt.want)
		}
	}
}

func TestCSVExportContents(t *testing.T) {
	dir := t.TempDir()
	e := NewCSVExporter(dir, stamp, logging.Discard())

	path, err := e.Export(sample(1, "Noisy Sinusoid (0.3)", 3))
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := "row,col\n0,0\n0.5,-0.25\n1,-0.5\n"
	if string(data) != want {
		t.Errorf("unexpected csv:\n%s\nwant:\n%s", data, want)
	}

	tr, err := ReadTrajectory(path)
	if err != nil {
		t.Fatalf("read trajectory failed: %v", err)
	}
	if len(tr) != 3 || tr[2].X != 1 || tr[2].Z != -0.5 {
		t.Errorf("unexpected trajectory %v", tr)
	}
}

func TestAggregatorKeepsResultWhenExportFails(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	logger := logging.NewLogger("debug", &logs)
	a := NewAggregator(Options{OutputDir: filepath.Join(blocker, "out"), Timestamp: stamp, SaveCSV: true}, logger)

	a.Add(sample(0, "Pure Sinusoid", 4))
	a.Add(sample(1, "Noisy Sinusoid (0.3)", 4))

	if n := len(a.Results()); n != 2 {
		t.Fatalf("expected 2 results, got %d", n)
	}
	if len(a.Written()) != 0 {
		t.Errorf("expected no files written, got %v", a.Written())
	}
	if !strings.Contains(logs.String(), "csv export failed") {
		t.Errorf("expected export failure to be logged, got %q", logs.String())
	}
}

func TestAggregatorOrder(t *testing.T) {
	a := NewAggregator(Options{}, logging.Discard())
	a.Add(sample(2, "c", 1))
	a.Add(sample(0, "a", 1))

	got := a.Results()
	if got[0].Label != "c" || got[1].Label != "a" {
		t.Errorf("expected insertion order, got %s, %s", got[0].Label, got[1].Label)
	}
}

func TestChartRender(t *testing.T) {
	results := []experiment.Result{sample(0, "Pure Sinusoid", 50), sample(1, "Nengo LIF (0.3)", 50)}

	for _, ext := range []string{"png", "svg"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "chart."+ext)
			if err := NewChart().Render(results, path); err != nil {
				t.Fatalf("render failed: %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat failed: %v", err)
			}
			if info.Size() == 0 {
				t.Error("expected non-empty chart file")
			}
		})
	}
}

func TestChartLabels(t *testing.T) {
	p, err := NewChart().build([]experiment.Result{sample(0, "Pure Sinusoid", 10)})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if p.Title.Text != "60s Movement Simulation" {
		t.Errorf("unexpected title %q", p.Title.Text)
	}
	if p.X.Label.Text != "X Displacement (m)" || p.Y.Label.Text != "Z Displacement (m)" {
		t.Errorf("unexpected axis labels %q, %q", p.X.Label.Text, p.Y.Label.Text)
	}
}

func TestChartNoData(t *testing.T) {
	err := NewChart().Render([]experiment.Result{sample(0, "empty", 0)}, filepath.Join(t.TempDir(), "c.png"))
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestPreviewLegends(t *testing.T) {
	out := Preview([]experiment.Result{sample(0, "Pure Sinusoid", 500), sample(1, "Noisy Sinusoid (0.3)", 500)}, 60, 8)
	for _, label := range []string{"Pure Sinusoid", "Noisy Sinusoid (0.3)"} {
		if !strings.Contains(out, label) {
			t.Errorf("preview missing legend %q", label)
		}
	}
	if Preview(nil, 60, 8) != "" {
		t.Error("expected empty preview without results")
	}
}

func TestDownsample(t *testing.T) {
	v := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	got := downsample(v, 4)
	if len(got) != 4 || got[0] != 0 || got[3] != 9 {
		t.Errorf("unexpected downsample %v", got)
	}
	if len(downsample(v, 20)) != 10 {
		t.Error("short series should be returned unchanged")
	}
	if got := downsample(v, 1); len(got) != 1 || got[0] != 9 {
		t.Errorf("single column should keep the last sample, got %v", got)
	}
}

func TestPreviewSingleColumn(t *testing.T) {
	out := Preview([]experiment.Result{sample(0, "Pure Sinusoid", 50)}, 1, 5)
	if !strings.Contains(out, "Pure Sinusoid") {
		t.Errorf("preview missing legend: %q", out)
	}
}

func TestSummaryIncludesFailures(t *testing.T) {
	rep := &experiment.Report{
		Results: []experiment.Result{sample(0, "Pure Sinusoid", 10), sample(2, "Nengo LIF (0.3)", 10)},
		Outcomes: []experiment.Outcome{
			{Index: 0, Label: "Pure Sinusoid", Policy: "sine", Status: experiment.Completed},
			{Index: 1, Label: "Noisy Sinusoid (0.3)", Policy: "noisy_sine", Status: experiment.Failed,
				Err: &experiment.RunError{Index: 1, Label: "Noisy Sinusoid (0.3)", Err: errors.New("diverged")}},
			{Index: 2, Label: "Nengo LIF (0.3)", Policy: "lif", Status: experiment.Completed},
		},
	}

	rows := Rows(rep, 0.001)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1].Metrics != nil {
		t.Error("failed experiment should have no metrics")
	}
	if rows[2].Deviation != 0 {
		t.Errorf("identical trajectories should not deviate, got %f", rows[2].Deviation)
	}
	if len(rows[0].Speed) != 9 {
		t.Errorf("expected 9 speed samples, got %d", len(rows[0].Speed))
	}
	if rows[1].Speed != nil {
		t.Error("failed experiment should have no speed trace")
	}

	out := Summary(rows)
	for _, want := range []string{"Pure Sinusoid", "Nengo LIF (0.3)", "failed", "diverged", "speed trace", "◆"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
