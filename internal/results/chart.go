package results

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// CurvePoint is one sample of a run's learning curve.
type CurvePoint struct {
	Timesteps    int
	ReturnMean   float64
	EpisodeCount int
}

// Curve is the learning curve of a single run.
type Curve struct {
	Label  string
	Points []CurvePoint
}

// RenderReport writes an HTML page with one line per run plotting mean
// episode return against environment timesteps.
func RenderReport(path, title string, curves []Curve) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
	)

	var longest []CurvePoint
	for _, c := range curves {
		if len(c.Points) > len(longest) {
			longest = c.Points
		}
	}
	xAxis := make([]string, len(longest))
	for i, p := range longest {
		xAxis[i] = fmt.Sprintf("%d", p.Timesteps)
	}
	line = line.SetXAxis(xAxis)

	for _, c := range curves {
		items := make([]opts.LineData, 0, len(c.Points))
		for _, p := range c.Points {
			items = append(items, opts.LineData{Value: p.ReturnMean})
		}
		line.AddSeries(c.Label, items)
	}

	page := components.NewPage()
	page.AddCharts(line)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("rendering report: %w", err)
	}
	return f.Close()
}
