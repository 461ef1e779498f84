// Package chart renders prediction results as go-echarts bar charts.
package chart

import (
	"bytes"
	"fmt"

	"machpredict/internal/form"
	"machpredict/internal/schema"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	colorBackground    = "#ffffff"
	colorTextPrimary   = "#1f2937"
	colorTextSecondary = "#6b7280"
	colorBar           = "#2563eb"

	chartWidthPx  = 720
	chartHeightPx = 320
)

// Bar builds the chart of one tool's predicted operation scores.
func Bar(res schema.PredictionResult) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: colorBackground,
			PageTitle:       res.Tool + " prediction",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         res.Tool,
			Subtitle:      "predicted machining operations",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 16},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary, Interval: "0"},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)
	labels := make([]string, len(res.Values))
	data := make([]opts.BarData, len(res.Values))
	for i, v := range res.Values {
		labels[i] = v.Label
		data[i] = opts.BarData{Name: v.Label, Value: v.Value, ItemStyle: &opts.ItemStyle{Color: colorBar}}
	}
	bar.SetXAxis(labels).AddSeries(res.Tool, data)
	return bar
}

// RenderOutcome renders one page holding a bar chart per successful tool.
// It returns nil when no tool produced a prediction.
func RenderOutcome(out form.Outcome) ([]byte, error) {
	page := components.NewPage()
	page.PageTitle = "Predictions"
	page.SetLayout(components.PageFlexLayout)
	for _, r := range out.Results {
		if !r.OK() {
			continue
		}
		page.AddCharts(Bar(*r.Result))
	}
	if len(page.Charts) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render charts for submission %s: %w", out.ID, err)
	}
	return buf.Bytes(), nil
}
