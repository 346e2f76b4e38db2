// Package report renders pier results as an HTML page of bar charts.
package report

import (
	"fmt"
	"io"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Render writes one bar chart each for DxV, depth, and velocity, keyed by
// model node, over the peak row of every pier arc.
func Render(w io.Writer, title string, results []domain.PierResult) error {
	peaks := domain.PeakPerArc(results)

	nodes := make([]string, len(peaks))
	dxv := make([]opts.BarData, len(peaks))
	depth := make([]opts.BarData, len(peaks))
	velocity := make([]opts.BarData, len(peaks))
	for i, r := range peaks {
		nodes[i] = string(r.ModelNode)
		dxv[i] = opts.BarData{Name: string(r.PierArcID), Value: r.DxV}
		depth[i] = opts.BarData{Name: string(r.PierArcID), Value: r.Depth}
		velocity[i] = opts.BarData{Name: string(r.PierArcID), Value: r.Velocity}
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(
		newBar(title+": DxV", "DxV (ft²/s)", nodes, dxv),
		newBar(title+": Depth", "Depth (ft)", nodes, depth),
		newBar(title+": Velocity", "Velocity (ft/s)", nodes, velocity),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func newBar(title, series string, nodes []string, data []opts.BarData) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "900px",
			Height: "420px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Model Node",
			AxisLabel: &opts.AxisLabel{Rotate: 45},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: series}),
	)
	bar.SetXAxis(nodes).AddSeries(series, data)
	return bar
}
