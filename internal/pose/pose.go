// Package pose defines the keypoint and pose types delivered by the external
// pose estimator, and the typed part lookup used by the angle pipeline.
package pose

import (
	"errors"
	"fmt"
	"math"
)

// Part is a body-part label as emitted by the estimator.
type Part string

const (
	Nose          Part = "nose"
	LeftEye       Part = "leftEye"
	RightEye      Part = "rightEye"
	LeftEar       Part = "leftEar"
	RightEar      Part = "rightEar"
	LeftShoulder  Part = "leftShoulder"
	RightShoulder Part = "rightShoulder"
	LeftElbow     Part = "leftElbow"
	RightElbow    Part = "rightElbow"
	LeftWrist     Part = "leftWrist"
	RightWrist    Part = "rightWrist"
	LeftHip       Part = "leftHip"
	RightHip      Part = "rightHip"
	LeftKnee      Part = "leftKnee"
	RightKnee     Part = "rightKnee"
	LeftAnkle     Part = "leftAnkle"
	RightAnkle    Part = "rightAnkle"
)

// ErrUnknownPart is returned when decoding a keypoint whose label is not one
// of the estimator's seventeen parts.
var ErrUnknownPart = errors.New("unknown body part")

// allParts lists every label the estimator can emit, in its output order.
var allParts = []Part{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist,
	LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// RequiredParts are the twelve limb parts that must all be confidently
// visible before joint angles are derived for a frame.
var RequiredParts = [12]Part{
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
}

// Valid reports whether p is a label the estimator emits.
func (p Part) Valid() bool {
	for _, known := range allParts {
		if p == known {
			return true
		}
	}
	return false
}

// Point is a 2D position in frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Keypoint is one labelled landmark with its detection confidence.
type Keypoint struct {
	Part     Part    `json:"part"`
	Position Point   `json:"position"`
	Score    float64 `json:"score"`
}

// Pose is one detected body: its keypoints plus an overall score.
type Pose struct {
	Score     float64    `json:"score"`
	Keypoints []Keypoint `json:"keypoints"`
}

// Detection pairs a pose with the skeleton segments the estimator derived
// for it. Each segment joins two adjacent keypoints.
type Detection struct {
	Pose     Pose          `json:"pose"`
	Skeleton [][2]Keypoint `json:"skeleton"`
}

// Visibility describes the outcome of looking up one part.
type Visibility int

const (
	// Found means the part was present with sufficient confidence.
	Found Visibility = iota
	// Absent means no keypoint with the label exists in the pose.
	Absent
	// LowScore means the keypoint's score is below the threshold.
	LowScore
	// NonFinite means the keypoint carries a NaN or infinite value.
	NonFinite
)

func (v Visibility) String() string {
	switch v {
	case Found:
		return "found"
	case Absent:
		return "absent"
	case LowScore:
		return "low_score"
	case NonFinite:
		return "non_finite"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

// Lookup is the typed result of Pose.Find. Position is only meaningful when
// Visibility is Found.
type Lookup struct {
	Part       Part
	Position   Point
	Score      float64
	Visibility Visibility
}

// Ok reports whether the part was found with sufficient confidence.
func (l Lookup) Ok() bool { return l.Visibility == Found }

// Find returns the first keypoint labelled part, classified against
// minScore. Later keypoints with the same label are ignored.
func (p Pose) Find(part Part, minScore float64) Lookup {
	for _, kp := range p.Keypoints {
		if kp.Part != part {
			continue
		}
		l := Lookup{Part: part, Position: kp.Position, Score: kp.Score}
		switch {
		case !kp.Position.Finite() || math.IsNaN(kp.Score) || math.IsInf(kp.Score, 0):
			l.Visibility = NonFinite
		case kp.Score < minScore:
			l.Visibility = LowScore
		default:
			l.Visibility = Found
		}
		return l
	}
	return Lookup{Part: part, Visibility: Absent}
}
