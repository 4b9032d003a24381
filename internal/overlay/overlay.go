// Package overlay draws detected keypoints and skeleton segments onto a
// rendering surface.
package overlay

import (
	"github.com/banshee-data/angle.report/internal/pose"
)

// Surface accepts the two draw primitives the overlay needs. Coordinates are
// frame pixels with the origin at the top-left.
type Surface interface {
	Ellipse(x, y, w, h float64)
	Line(x1, y1, x2, y2 float64)
}

// Options controls what is drawn.
type Options struct {
	// MinKeypointScore is the exclusive lower bound for drawing a keypoint.
	MinKeypointScore float64
	// KeypointSize is the ellipse diameter in pixels.
	KeypointSize float64
}

// DefaultOptions draws keypoints scoring above 0.2 as 10px dots.
func DefaultOptions() Options {
	return Options{MinKeypointScore: 0.2, KeypointSize: 10}
}

// Draw renders keypoints then skeleton segments for every detection.
func Draw(s Surface, detections []pose.Detection, o Options) {
	DrawKeypoints(s, detections, o)
	DrawSkeleton(s, detections)
}

// DrawKeypoints draws an ellipse at every keypoint whose score exceeds
// o.MinKeypointScore, across all detections.
func DrawKeypoints(s Surface, detections []pose.Detection, o Options) {
	for _, d := range detections {
		for _, kp := range d.Pose.Keypoints {
			if kp.Score <= o.MinKeypointScore || !kp.Position.Finite() {
				continue
			}
			s.Ellipse(kp.Position.X, kp.Position.Y, o.KeypointSize, o.KeypointSize)
		}
	}
}

// DrawSkeleton draws every skeleton segment across all detections.
func DrawSkeleton(s Surface, detections []pose.Detection) {
	for _, d := range detections {
		for _, seg := range d.Skeleton {
			a, b := seg[0].Position, seg[1].Position
			if !a.Finite() || !b.Finite() {
				continue
			}
			s.Line(a.X, a.Y, b.X, b.Y)
		}
	}
}

// Op is one recorded draw call.
type Op struct {
	Kind string // "ellipse" or "line"
	Args [4]float64
}

// Recorder is a Surface that records draw calls.
type Recorder struct {
	Ops []Op
}

// Ellipse records an ellipse.
func (r *Recorder) Ellipse(x, y, w, h float64) {
	r.Ops = append(r.Ops, Op{Kind: "ellipse", Args: [4]float64{x, y, w, h}})
}

// Line records a line.
func (r *Recorder) Line(x1, y1, x2, y2 float64) {
	r.Ops = append(r.Ops, Op{Kind: "line", Args: [4]float64{x1, y1, x2, y2}})
}
