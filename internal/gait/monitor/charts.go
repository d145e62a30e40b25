package monitor

import (
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/gait.report/internal/gait"
)

// RenderCyclesChart writes a self-contained HTML line chart of the channel
// with the detected landmarks overlaid as a scatter series. Long channels are
// downsampled by stride to keep the page responsive.
func RenderCyclesChart(w io.Writer, channel string, sig *gait.Signal, results *gait.ResultSet) error {
	stride := 1
	if sig.Len() > maxPlotPoints {
		stride = int(math.Ceil(float64(sig.Len()) / float64(maxPlotPoints)))
	}

	// Pair values with an explicit value-type x axis so landmark markers can
	// sit at exact sample indices regardless of the downsampling stride.
	data := make([]opts.LineData, 0, sig.Len()/stride+1)
	for i := 0; i < sig.Len(); i += stride {
		data = append(data, opts.LineData{Value: []interface{}{i, sig.Values[i]}})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Gait Cycles", Width: "1400px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("channel %s", channel),
			Subtitle: fmt.Sprintf("cycles=%d samples=%d stride=%d", results.Len(), sig.Len(), stride),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "sample", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "pressure"}),
	)
	line.SetXAxis([]int(nil)).AddSeries("pressure", data)

	marks := make([]opts.ScatterData, 0, results.Len())
	for _, c := range results.Cycles() {
		for role, idx := range c.Landmarks {
			if idx < 0 || idx >= sig.Len() {
				continue
			}
			marks = append(marks, opts.ScatterData{
				Name:  string(role),
				Value: []interface{}{idx, sig.Values[idx]},
			})
		}
	}
	scatter := charts.NewScatter()
	scatter.AddSeries("landmarks", marks, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	line.Overlap(scatter)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("rendering cycles chart: %w", err)
	}
	return nil
}

// ChartHandler serves the cycles chart for one scanned channel. Debugging
// only; no auth.
func ChartHandler(channel string, sig *gait.Signal, results *gait.ResultSet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := RenderCyclesChart(w, channel, sig, results); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
