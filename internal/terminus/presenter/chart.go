package presenter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/terminus-adherence/pkg/terminus/models"
)

// Metric selects one of the three percentage columns
type Metric struct {
	Key   string
	Title string
	Value func(models.LineStats) float64
}

var Metrics = []Metric{
	{Key: "arrival", Title: "Terminus arrival late (%)", Value: func(s models.LineStats) float64 { return s.PctArrivalLate }},
	{Key: "departure", Title: "Terminus departure late (%)", Value: func(s models.LineStats) float64 { return s.PctDepartureLate }},
	{Key: "both", Title: "Arrival & departure late (%)", Value: func(s models.LineStats) float64 { return s.PctBothLate }},
}

var barColor = drawing.ColorFromHex("D35400")

const (
	chartHeight = 512
	barWidth    = 40
	barSpacing  = 20
)

// BarChart builds the chart of one metric. Every chart of a report uses the same y-axis
// range so they can be compared side by side.
func BarChart(report *models.Report, metric Metric) (*chart.BarChart, error) {
	if report.NoData || len(report.Lines) == 0 {
		return nil, ErrNoData
	}

	style := chart.Style{FillColor: barColor, StrokeColor: barColor, StrokeWidth: 1}
	ids := report.LineIDs()
	bars := make([]chart.Value, 0, len(ids))
	for _, id := range ids {
		bars = append(bars, chart.Value{Label: id, Value: metric.Value(report.Lines[id]), Style: style})
	}

	axisMax := report.SharedAxisMax
	if axisMax <= 0 {
		axisMax = 10
	}

	return &chart.BarChart{
		Title:      metric.Title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		Width:      max(400, len(bars)*(barWidth+barSpacing)+160),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: axisMax},
			Ticks: ticks(axisMax),
		},
		Bars: bars,
	}, nil
}

// RenderCharts writes one PNG per metric next to basePath, named <base>_<metric>.png,
// and returns the written paths.
func RenderCharts(report *models.Report, basePath string) ([]string, error) {
	if report.NoData {
		return nil, ErrNoData
	}

	ext := filepath.Ext(basePath)
	stem := strings.TrimSuffix(basePath, ext)
	if ext == "" {
		ext = ".png"
	}
	if dir := filepath.Dir(basePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating chart directory: %w", err)
		}
	}

	var written []string
	for _, m := range Metrics {
		graph, err := BarChart(report, m)
		if err != nil {
			return written, err
		}

		path := fmt.Sprintf("%s_%s%s", stem, m.Key, ext)
		f, err := os.Create(path)
		if err != nil {
			return written, fmt.Errorf("creating %s: %w", path, err)
		}
		renderErr := graph.Render(chart.PNG, f)
		closeErr := f.Close()
		if renderErr != nil {
			return written, fmt.Errorf("rendering %s chart: %w", m.Key, renderErr)
		}
		if closeErr != nil {
			return written, fmt.Errorf("closing %s: %w", path, closeErr)
		}
		written = append(written, path)
	}
	return written, nil
}

func ticks(axisMax float64) []chart.Tick {
	step := 10.0
	if axisMax > 50 {
		step = 20
	}
	var out []chart.Tick
	for v := 0.0; v < axisMax; v += step {
		out = append(out, chart.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return append(out, chart.Tick{Value: axisMax, Label: fmt.Sprintf("%.0f", axisMax)})
}
