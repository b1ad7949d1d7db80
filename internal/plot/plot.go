// Package plot renders stored readings as comparable line series.
package plot

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/aa08453/spectra/internal/sensor"
)

// Options configures chart rendering.
type Options struct {
	// Title is the chart title.
	Title string

	// WidthIn and HeightIn are the chart dimensions in inches.
	WidthIn  float64
	HeightIn float64
}

// DefaultOptions returns default rendering options.
func DefaultOptions() Options {
	return Options{
		Title:    "Wavelength vs Value",
		WidthIn:  10,
		HeightIn: 6,
	}
}

// Render draws one line series per reading on shared axes and writes the
// chart to path. The x axis is the channel wavelength, the y axis the
// measured value; the legend identifies each series by its store key.
func Render(readings []*sensor.Reading, path string, opts Options) error {
	if len(readings) == 0 {
		return fmt.Errorf("no readings to plot")
	}
	if opts.WidthIn <= 0 || opts.HeightIn <= 0 {
		def := DefaultOptions()
		opts.WidthIn, opts.HeightIn = def.WidthIn, def.HeightIn
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Wavelength (nm)"
	p.Y.Label.Text = "Value"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	for i, r := range readings {
		xys := make(plotter.XYs, len(r.Values))
		for j := range r.Values {
			xys[j].X = r.Channels[j]
			xys[j].Y = r.Values[j]
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("series %s: %w", r.Key(), err)
		}
		line.Color = plotutil.Color(i)

		p.Add(line)
		p.Legend.Add(r.Key(), line)
	}

	if err := p.Save(vg.Length(opts.WidthIn)*vg.Inch, vg.Length(opts.HeightIn)*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}

	return nil
}
