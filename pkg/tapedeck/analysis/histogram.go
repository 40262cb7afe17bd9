package analysis

import (
	"fmt"
	"image/color"
	"io"

	"github.com/norasector/tapedeck/pkg/tape"
	"github.com/norasector/tapedeck/pkg/tape/pulse"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// histogramLimit drops gaps and silence from the plot.
const histogramLimit = 64

func plotWithDefaults() *plot.Plot {
	p := plot.New()
	p.BackgroundColor = color.Black
	p.Title.TextStyle.Color = color.White
	p.Y.Label.TextStyle.Color = color.White
	p.Y.Color = color.White
	p.X.Label.TextStyle.Color = color.White
	p.X.Color = color.White
	p.X.Tick.Color = color.White
	p.Y.Tick.Color = color.White
	p.X.Tick.Label.Color = color.White
	p.Y.Tick.Label.Color = color.White

	return p
}

// windowBand shades a classification window on the histogram.
func windowBand(w pulse.Window, height float64, c color.Color) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(plotter.XYs{
		{X: float64(w.Low), Y: 0},
		{X: float64(w.Low), Y: height},
		{X: float64(w.High), Y: height},
		{X: float64(w.High), Y: 0},
	})
	if err != nil {
		return nil, err
	}
	poly.Color = c
	poly.LineStyle.Width = 0
	return poly, nil
}

// WriteHistogram renders the distribution of crossing intervals, with the
// decoder windows shaded, as a PNG.
func WriteHistogram(w io.Writer, samples []int32, spec tape.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	var values plotter.Values
	for _, iv := range pulse.Measure(samples, spec) {
		if u := units(iv.Frames, spec.SampleRate); u <= histogramLimit {
			values = append(values, u)
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("no pulses to plot")
	}

	p := plotWithDefaults()
	p.Title.Text = fmt.Sprintf("Pulse lengths (%s)", spec)
	p.X.Label.Text = "Length (1/44100 s)"
	p.Y.Label.Text = "Count"
	p.X.Min = 0
	p.X.Max = histogramLimit

	h, err := plotter.NewHist(values, histogramLimit)
	if err != nil {
		return err
	}
	h.FillColor = color.RGBA{R: 90, G: 200, B: 255, A: 255}
	h.LineStyle.Color = color.White

	var height float64
	for _, b := range h.Bins {
		if b.Weight > height {
			height = b.Weight
		}
	}

	bands := []struct {
		w pulse.Window
		c color.Color
	}{
		{pulse.OneWindow, color.RGBA{R: 60, G: 120, B: 60, A: 255}},
		{pulse.ZeroWindow, color.RGBA{R: 120, G: 60, B: 60, A: 255}},
		{pulse.StartWindow, color.RGBA{R: 60, G: 60, B: 120, A: 255}},
	}
	for _, b := range bands {
		poly, err := windowBand(b.w, height, b.c)
		if err != nil {
			return err
		}
		p.Add(poly)
	}
	p.Add(h)

	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
