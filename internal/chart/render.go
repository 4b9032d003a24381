package chart

import (
	"fmt"
	"image/color"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// HTMLOptions controls the echarts page.
type HTMLOptions struct {
	Title string
	// AssetsHost overrides where echarts.min.js is loaded from. Empty uses
	// the go-echarts default CDN.
	AssetsHost string
	Width      string
	Height     string
}

// RenderHTML writes a standalone echarts page plotting the series.
func RenderHTML(w io.Writer, s *Series, o HTMLOptions) error {
	if o.Title == "" {
		o.Title = s.Label()
	}
	if o.Width == "" {
		o.Width = "100%"
	}
	if o.Height == "" {
		o.Height = "480px"
	}

	pts := s.Points()
	data := make([]opts.LineData, len(pts))
	for i, p := range pts {
		data[i] = opts.LineData{Value: []interface{}{p.X, p.Y}}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.Title, Width: o.Width, Height: o.Height, AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: fmt.Sprintf("points=%d", len(pts))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Sample", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Angle (deg)", Min: 0, Max: 180}),
	)
	line.AddSeries(s.Label(), data,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color()}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color()}),
	)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render echarts line: %w", err)
	}
	return nil
}

// PNGOptions controls the static plot.
type PNGOptions struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	Color  color.Color
}

// RenderPNG writes the series as a PNG line plot.
func RenderPNG(w io.Writer, s *Series, o PNGOptions) error {
	if o.Title == "" {
		o.Title = s.Label()
	}
	if o.Width == 0 {
		o.Width = 10 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 4 * vg.Inch
	}
	if o.Color == nil {
		o.Color = color.RGBA{G: 128, A: 255}
	}

	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Angle (deg)"
	p.Y.Min = 0
	p.Y.Max = 180

	pts := s.Points()
	if len(pts) == 0 {
		p.X.Min = 0
		p.X.Max = 1
	} else {
		xys := make(plotter.XYs, len(pts))
		for i, pt := range pts {
			xys[i] = plotter.XY{X: float64(pt.X), Y: pt.Y}
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("build line: %w", err)
		}
		l.Color = o.Color
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(s.Label(), l)
		p.Legend.Top = true
	}

	wt, err := p.WriterTo(o.Width, o.Height, "png")
	if err != nil {
		return fmt.Errorf("create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
