package report

import (
	"fmt"
	"image/color"

	"github.com/nvr-ai/go-motion/motion"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	deltaColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	flowColor  = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// PlotTimeSeries renders the per-frame delta and flow of r as a PNG (or any format
// gonum/plot infers from the extension of path).
//
// Arguments:
//   - r: The report.
//   - title: The plot title.
//   - path: The output image.
//
// Returns:
//   - error: An error if the report has no transitions or the image cannot be saved.
func PlotTimeSeries(r *motion.Report, title, path string) error {
	if len(r.Delta) == 0 {
		return errors.New("report has no frame transitions to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Value"

	deltaPts := make(plotter.XYs, len(r.Delta))
	flowPts := make(plotter.XYs, len(r.Flow))
	for i := range r.Delta {
		deltaPts[i] = plotter.XY{X: float64(i + 1), Y: r.Delta[i]}
	}
	for i := range r.Flow {
		flowPts[i] = plotter.XY{X: float64(i + 1), Y: r.Flow[i]}
	}

	for _, s := range []struct {
		label string
		pts   plotter.XYs
		color color.Color
	}{
		{label: "delta", pts: deltaPts, color: deltaColor},
		{label: "flow", pts: flowPts, color: flowColor},
	} {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return err
		}
		line.Color = s.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrap(err, "save time series plot")
	}
	return nil
}

// PlotRegions renders the peak flow of every region as a bar chart.
func PlotRegions(r *motion.Report, title, path string) error {
	if len(r.Regions.MinMaxFlow) == 0 {
		return errors.New("report has no region statistics to plot")
	}

	peaks := make(plotter.Values, len(r.Regions.MinMaxFlow))
	names := make([]string, len(peaks))
	for i, mm := range r.Regions.MinMaxFlow {
		peaks[i] = mm[1]
		names[i] = fmt.Sprint(i)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Region"
	p.Y.Label.Text = "Peak flow"

	bars, err := plotter.NewBarChart(peaks, vg.Points(8))
	if err != nil {
		return err
	}
	bars.Color = flowColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrap(err, "save region plot")
	}
	return nil
}
