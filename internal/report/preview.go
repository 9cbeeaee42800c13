package report

import (
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gaitbench/internal/experiment"
)

var previewColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Red,
	asciigraph.Blue,
}

// Preview plots distance from the start point against sample index for
// every result, down-sampled to width columns.
func Preview(results []experiment.Result, width, height int) string {
	data := make([][]float64, 0, len(results))
	legends := make([]string, 0, len(results))
	colors := make([]asciigraph.AnsiColor, 0, len(results))

	for i, r := range results {
		if len(r.Trajectory) == 0 {
			continue
		}
		data = append(data, downsample(distanceSeries(r.Trajectory), width))
		legends = append(legends, r.Label)
		colors = append(colors, previewColors[i%len(previewColors)])
	}
	if len(data) == 0 {
		return ""
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("distance from start (m)"),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
}

func distanceSeries(tr experiment.Trajectory) []float64 {
	out := make([]float64, len(tr))
	x0, z0 := tr[0].X, tr[0].Z
	for i, p := range tr {
		out[i] = math.Hypot(p.X-x0, p.Z-z0)
	}
	return out
}

func downsample(v []float64, n int) []float64 {
	if n <= 0 || len(v) <= n {
		return v
	}
	if n == 1 {
		return v[len(v)-1:]
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = v[i*(len(v)-1)/(n-1)]
	}
	return out
}
