package analytics

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// TrendChart renders the series as a dual-axis line: prediction count on the left
// axis, running accuracy on the right.
func TrendChart(points []TrendPoint) *charts.Line {
	dates := make([]string, 0, len(points))
	counts := make([]opts.LineData, 0, len(points))
	accuracy := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		dates = append(dates, p.Date)
		counts = append(counts, opts.LineData{Value: p.Count})
		accuracy = append(accuracy, opts.LineData{Value: p.RunningAccuracy, YAxisIndex: 1})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Prediction Trends",
			Subtitle: "Daily predictions and running accuracy",
		}),
		// Dates are set here as well as in SetXAxis so JSON() carries them without a render pass.
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: dates}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:     "value",
			Name:     "Predictions",
			Position: "left",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.ExtendYAxis(opts.YAxis{
		Type:     "value",
		Name:     "Accuracy (%)",
		Position: "right",
		Min:      0,
		Max:      100,
	})

	line.SetXAxis(dates).
		AddSeries("Predictions", counts).
		AddSeries("Accuracy", accuracy, charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}))
	line.SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}

// SamplesChart plots ECG samples with the sample index on the x axis. Values are
// used as given.
func SamplesChart(samples []float64, title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "ECG Signal", Subtitle: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Sample"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Amplitude", Scale: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	items := make([]opts.LineData, 0, len(samples))
	for i, v := range samples {
		items = append(items, opts.LineData{Value: []interface{}{i, v}})
	}
	line.AddSeries("ECG", items, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 1}))
	return line
}
