// Package monitor renders scan results for human review: static PNG plots
// via gonum/plot and interactive HTML charts via go-echarts.
package monitor

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/gait.report/internal/gait"
)

// maxPlotPoints caps the number of signal samples drawn in one plot. Longer
// channels are downsampled by stride; landmark markers are never dropped.
const maxPlotPoints = 20000

// SaveCyclePlot writes a PNG of one scanned channel with the detected
// landmark positions overlaid as markers.
func SaveCyclePlot(path, channel string, sig *gait.Signal, results *gait.ResultSet) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("channel %s: %d cycles", channel, results.Len())
	p.X.Label.Text = "sample index"
	p.Y.Label.Text = "pressure"

	stride := 1
	if sig.Len() > maxPlotPoints {
		stride = int(math.Ceil(float64(sig.Len()) / float64(maxPlotPoints)))
	}

	pts := make(plotter.XYs, 0, sig.Len()/stride+1)
	for i := 0; i < sig.Len(); i += stride {
		pts = append(pts, plotter.XY{X: float64(i), Y: sig.Values[i]})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("building signal line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("pressure", line)

	marks := landmarkPoints(sig, results)
	if len(marks) > 0 {
		scatter, err := plotter.NewScatter(marks)
		if err != nil {
			return fmt.Errorf("building landmark scatter: %w", err)
		}
		scatter.GlyphStyle.Radius = vg.Points(2.5)
		scatter.GlyphStyle.Color = color.RGBA{R: 200, G: 40, B: 40, A: 255}
		p.Add(scatter)
		p.Legend.Add("landmarks", scatter)
	}

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving cycle plot: %w", err)
	}
	return nil
}

// landmarkPoints collects every detected landmark as an (index, value) pair
// in index order.
func landmarkPoints(sig *gait.Signal, results *gait.ResultSet) plotter.XYs {
	var pts plotter.XYs
	for _, c := range results.Cycles() {
		for _, idx := range c.Landmarks {
			if idx >= 0 && idx < sig.Len() {
				pts = append(pts, plotter.XY{X: float64(idx), Y: sig.Values[idx]})
			}
		}
	}
	sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
	return pts
}
