package overlay

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"
)

// ellipseSegments is the polygon resolution used to approximate ellipses.
const ellipseSegments = 32

// RasterSurface draws onto an in-memory image sized to the capture frame,
// one point per pixel, and encodes it as PNG.
type RasterSurface struct {
	canvas *vgimg.Canvas
	height float64
}

// NewRasterSurface creates a surface of width x height pixels with a black
// background, red fill for keypoints and red strokes for segments.
func NewRasterSurface(width, height int) *RasterSurface {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(width), vg.Length(height)),
		vgimg.UseDPI(int(vg.Inch)),
		vgimg.UseBackgroundColor(color.Black),
	)
	c.SetColor(color.RGBA{R: 255, A: 255})
	c.SetLineWidth(1)
	return &RasterSurface{canvas: c, height: float64(height)}
}

// point flips y so that callers keep top-left origin coordinates.
func (r *RasterSurface) point(x, y float64) vg.Point {
	return vg.Point{X: vg.Length(x), Y: vg.Length(r.height - y)}
}

// Ellipse fills an axis-aligned ellipse centred on (x, y).
func (r *RasterSurface) Ellipse(x, y, w, h float64) {
	var p vg.Path
	for i := 0; i <= ellipseSegments; i++ {
		theta := 2 * math.Pi * float64(i) / ellipseSegments
		pt := r.point(x+w/2*math.Cos(theta), y+h/2*math.Sin(theta))
		if i == 0 {
			p.Move(pt)
		} else {
			p.Line(pt)
		}
	}
	p.Close()
	r.canvas.Fill(p)
}

// Line strokes a segment.
func (r *RasterSurface) Line(x1, y1, x2, y2 float64) {
	var p vg.Path
	p.Move(r.point(x1, y1))
	p.Line(r.point(x2, y2))
	r.canvas.Stroke(p)
}

// WritePNG encodes the surface.
func (r *RasterSurface) WritePNG(w io.Writer) error {
	if _, err := (vgimg.PngCanvas{Canvas: r.canvas}).WriteTo(w); err != nil {
		return fmt.Errorf("encode overlay png: %w", err)
	}
	return nil
}
