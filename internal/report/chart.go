package report

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/gaitbench/internal/experiment"
)

var ErrNoData = errors.New("report: no trajectories to plot")

const (
	ChartTitle  = "60s Movement Simulation"
	ChartXLabel = "X Displacement (m)"
	ChartYLabel = "Z Displacement (m)"
)

// Chart draws every trajectory on shared X/Z axes.
type Chart struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

func NewChart() *Chart {
	return &Chart{Title: ChartTitle, Width: 8 * vg.Inch, Height: 6 * vg.Inch}
}

// Render saves the chart to path; the format follows the file extension
// (png, svg, pdf, ...).
func (c *Chart) Render(results []experiment.Result, path string) error {
	p, err := c.build(results)
	if err != nil {
		return err
	}
	if err := p.Save(c.Width, c.Height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

func (c *Chart) build(results []experiment.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = ChartXLabel
	p.Y.Label.Text = ChartYLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	drawn := 0
	for i, r := range results {
		if len(r.Trajectory) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(r.Trajectory))
		for j, pt := range r.Trajectory {
			pts[j].X = pt.X
			pts[j].Y = pt.Z
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("experiment %q: %w", r.Label, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(r.Label, line)
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNoData
	}
	return p, nil
}
