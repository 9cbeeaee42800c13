package report

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/gaitbench/internal/experiment"
	"github.com/san-kum/gaitbench/internal/metrics"
	"github.com/san-kum/gaitbench/internal/viz"
)

// Row is one line of the summary: a completed result with its metrics, or
// a failure.
type Row struct {
	Index     int
	Label     string
	Policy    string
	Status    experiment.Status
	Samples   int
	Metrics   map[string]float64
	Speed     []float64
	Deviation float64
	Err       error
}

// Rows joins results and outcomes in configured order. Deviation is
// measured against the first completed result.
func Rows(rep *experiment.Report, dt float64) []Row {
	byIndex := make(map[int]experiment.Result, len(rep.Results))
	for _, r := range rep.Results {
		byIndex[r.Index] = r
	}
	var ref experiment.Trajectory
	if len(rep.Results) > 0 {
		ref = rep.Results[0].Trajectory
	}

	rows := make([]Row, 0, len(rep.Outcomes))
	for _, o := range rep.Outcomes {
		row := Row{Index: o.Index, Label: o.Label, Policy: o.Policy, Status: o.Status, Err: o.Err, Deviation: math.NaN()}
		if r, ok := byIndex[o.Index]; ok {
			row.Samples = len(r.Trajectory)
			row.Metrics = metrics.Evaluate(r.Trajectory, dt)
			row.Speed = speedSeries(r.Trajectory, dt)
			row.Deviation = metrics.Deviation(ref, r.Trajectory)
		}
		rows = append(rows, row)
	}
	return rows
}

// Summary renders rows as a bordered table.
func Summary(rows []Row) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(viz.Subtle).
		Headers("#", "experiment", "policy", "status", "samples", "disp (m)", "path (m)", "straight", "heading", "speed (m/s)", "speed trace", "cadence (Hz)", "dev (m)")

	for _, r := range rows {
		status := r.Status.String()
		if r.Metrics == nil {
			t.Row(strconv.Itoa(r.Index), r.Label, r.Policy, status, "-", "-", "-", "-", "-", "-", "-", "-", "-")
			continue
		}
		t.Row(
			strconv.Itoa(r.Index),
			r.Label,
			r.Policy,
			status,
			strconv.Itoa(r.Samples),
			num(r.Metrics["displacement"], 3),
			num(r.Metrics["path_length"], 3),
			num(r.Metrics["straightness"], 2),
			num(r.Metrics["heading_deg"], 1)+"°",
			num(r.Metrics["mean_speed"], 3),
			viz.Sparkline(r.Speed, traceWidth),
			num(r.Metrics["cadence_hz"], 3),
			num(r.Deviation, 3),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		base := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return base.Inherit(viz.Title)
		}
		if col == 3 && row >= 0 && row < len(rows) {
			if rows[row].Status == experiment.Failed {
				return base.Inherit(viz.StatusFailed)
			}
			return base.Inherit(viz.StatusOK)
		}
		return base
	})

	out := t.String()
	failed := false
	for _, r := range rows {
		if r.Err == nil {
			continue
		}
		if !failed {
			out += "\n" + viz.Separator(traceWidth*3)
			failed = true
		}
		out += "\n" + viz.StatusFailed.Render("✗ ") + r.Err.Error()
	}
	return out
}

const traceWidth = 12

// speedSeries is the ground speed between consecutive samples.
func speedSeries(tr experiment.Trajectory, dt float64) []float64 {
	if len(tr) < 2 || dt <= 0 {
		return nil
	}
	out := make([]float64, len(tr)-1)
	for i := 1; i < len(tr); i++ {
		out[i-1] = math.Hypot(tr[i].X-tr[i-1].X, tr[i].Z-tr[i-1].Z) / dt
	}
	return out
}

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
