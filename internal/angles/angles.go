// Package angles derives joint angles from per-frame pose detections.
//
// Derive is a pure function of its input: it validates the first detection
// against the confidence thresholds and, when every required part is
// visible, computes the four joint angles. It never returns NaN or Inf and
// never reports low confidence as an error; an unusable frame is an
// Occluded result with a Reason.
package angles

import (
	"fmt"
	"math"

	"github.com/banshee-data/angle.report/internal/pose"
)

// Thresholds gate which frames produce a sample.
type Thresholds struct {
	// MinPoseScore is the minimum overall score of the first detection.
	MinPoseScore float64
	// MinPartScore is the minimum score of every required keypoint.
	MinPartScore float64
}

// DefaultThresholds returns the estimator demo's thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{MinPoseScore: 0.2, MinPartScore: 0.1}
}

// Sample holds one frame's joint angles, in degrees.
type Sample struct {
	LeftElbow  float64 `json:"left_elbow"`
	RightElbow float64 `json:"right_elbow"`
	LeftKnee   float64 `json:"left_knee"`
	RightKnee  float64 `json:"right_knee"`
}

// Values returns the angles in Joints order.
func (s Sample) Values() [4]float64 {
	return [4]float64{s.LeftElbow, s.RightElbow, s.LeftKnee, s.RightKnee}
}

// Finite reports whether every angle is a finite number.
func (s Sample) Finite() bool {
	for _, v := range s.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Joint names an angle and the three parts it is computed from.
type Joint struct {
	Name     string
	Proximal pose.Part
	Vertex   pose.Part
	Distal   pose.Part
}

// Joints lists the four measured joints in Sample field order.
var Joints = [4]Joint{
	{Name: "left_elbow", Proximal: pose.LeftShoulder, Vertex: pose.LeftElbow, Distal: pose.LeftWrist},
	{Name: "right_elbow", Proximal: pose.RightShoulder, Vertex: pose.RightElbow, Distal: pose.RightWrist},
	{Name: "left_knee", Proximal: pose.LeftHip, Vertex: pose.LeftKnee, Distal: pose.LeftAnkle},
	{Name: "right_knee", Proximal: pose.RightHip, Vertex: pose.RightKnee, Distal: pose.RightAnkle},
}

// Reason explains why a frame was occluded.
type Reason int

const (
	ReasonNone Reason = iota
	// MissingDetection: the estimator reported no body this frame.
	MissingDetection
	// LowPoseScore: the first detection's overall score is below threshold.
	LowPoseScore
	// LowKeypointConfidence: a required part is below its threshold.
	LowKeypointConfidence
	// Malformed: a required part is absent or carries non-finite values.
	Malformed
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case MissingDetection:
		return "missing_detection"
	case LowPoseScore:
		return "low_pose_score"
	case LowKeypointConfidence:
		return "low_keypoint_confidence"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// State is the per-frame visibility state.
type State int

const (
	Occluded State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "occluded"
}

// Result is the outcome of Derive. Sample is set only when State is Visible;
// Reason and Part are set only when State is Occluded.
type Result struct {
	State  State
	Sample Sample
	Reason Reason
	// Part is the first required part that failed, for keypoint reasons.
	Part pose.Part
}

// Visible reports whether the frame produced a sample.
func (r Result) Visible() bool { return r.State == Visible }

func occluded(reason Reason, part pose.Part) Result {
	return Result{State: Occluded, Reason: reason, Part: part}
}

// Derive validates the first detection and computes its joint angles.
// Only the first detection is inspected; any failing required part
// suppresses the whole frame.
func Derive(detections []pose.Detection, th Thresholds) Result {
	if len(detections) == 0 {
		return occluded(MissingDetection, "")
	}
	p := detections[0].Pose
	if math.IsNaN(p.Score) || p.Score < th.MinPoseScore {
		return occluded(LowPoseScore, "")
	}

	pos := make(map[pose.Part]pose.Point, len(pose.RequiredParts))
	for _, part := range pose.RequiredParts {
		l := p.Find(part, th.MinPartScore)
		switch l.Visibility {
		case pose.Found:
		case pose.LowScore:
			return occluded(LowKeypointConfidence, part)
		default:
			return occluded(Malformed, part)
		}
		pos[part] = l.Position
	}

	var v [4]float64
	for i, j := range Joints {
		v[i] = JointAngle(pos[j.Proximal], pos[j.Vertex], pos[j.Distal])
	}
	s := Sample{LeftElbow: v[0], RightElbow: v[1], LeftKnee: v[2], RightKnee: v[3]}
	if !s.Finite() {
		return occluded(Malformed, "")
	}
	return Result{State: Visible, Sample: s}
}

// SlopeAngle returns the unsigned inclination of the segment a-b in degrees,
// in [0, 90]. A vertical segment (zero horizontal displacement) is 90.
func SlopeAngle(a, b pose.Point) float64 {
	dx := math.Abs(b.X - a.X)
	dy := math.Abs(b.Y - a.Y)
	if dx == 0 {
		return 90
	}
	return toDegrees(math.Atan(dy / dx))
}

// JointAngle approximates the angle at vertex as the sum of the inclinations
// of proximal-vertex and distal-vertex. It is not the vector angle at the
// vertex; the sum is symmetric in proximal and distal.
func JointAngle(proximal, vertex, distal pose.Point) float64 {
	return SlopeAngle(proximal, vertex) + SlopeAngle(distal, vertex)
}

func toDegrees(radians float64) float64 {
	return radians * (180 / math.Pi)
}
