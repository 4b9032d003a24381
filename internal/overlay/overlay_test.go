package overlay

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/banshee-data/angle.report/internal/pose"
	"github.com/google/go-cmp/cmp"
)

func kp(part pose.Part, x, y, score float64) pose.Keypoint {
	return pose.Keypoint{Part: part, Position: pose.Point{X: x, Y: y}, Score: score}
}

func TestDraw(t *testing.T) {
	shoulder := kp(pose.LeftShoulder, 10, 20, 0.9)
	elbow := kp(pose.LeftElbow, 30, 40, 0.2) // not above the bound
	wrist := kp(pose.LeftWrist, 50, 60, 0.21)
	other := kp(pose.RightHip, 5, 5, 0.8)

	detections := []pose.Detection{
		{
			Pose:     pose.Pose{Score: 0.6, Keypoints: []pose.Keypoint{shoulder, elbow, wrist}},
			Skeleton: [][2]pose.Keypoint{{shoulder, elbow}},
		},
		{
			Pose:     pose.Pose{Score: 0.3, Keypoints: []pose.Keypoint{other}},
			Skeleton: [][2]pose.Keypoint{{other, wrist}},
		},
	}

	var rec Recorder
	Draw(&rec, detections, DefaultOptions())

	want := []Op{
		{Kind: "ellipse", Args: [4]float64{10, 20, 10, 10}},
		{Kind: "ellipse", Args: [4]float64{50, 60, 10, 10}},
		{Kind: "ellipse", Args: [4]float64{5, 5, 10, 10}},
		{Kind: "line", Args: [4]float64{10, 20, 30, 40}},
		{Kind: "line", Args: [4]float64{5, 5, 50, 60}},
	}
	if diff := cmp.Diff(want, rec.Ops); diff != "" {
		t.Errorf("draw ops mismatch (-want +got):\n%s", diff)
	}
}

func TestDraw_SkipsNonFinite(t *testing.T) {
	bad := kp(pose.LeftKnee, math.NaN(), 1, 0.9)
	good := kp(pose.LeftHip, 1, 1, 0.9)
	var rec Recorder
	Draw(&rec, []pose.Detection{{
		Pose:     pose.Pose{Keypoints: []pose.Keypoint{bad, good}},
		Skeleton: [][2]pose.Keypoint{{good, bad}},
	}}, DefaultOptions())

	if len(rec.Ops) != 1 || rec.Ops[0].Kind != "ellipse" {
		t.Errorf("expected a single ellipse for the finite keypoint, got %+v", rec.Ops)
	}
}

func TestRasterSurface(t *testing.T) {
	s := NewRasterSurface(64, 48)
	s.Ellipse(10, 10, 10, 10)
	s.Line(0, 0, 63, 47)

	var buf bytes.Buffer
	if err := s.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode failed: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("image size = %dx%d, want 64x48", b.Dx(), b.Dy())
	}

	// centre of the filled keypoint dot is red
	r, g, _, _ := img.At(10, 10).RGBA()
	if r < 0x8000 || g > 0x4000 {
		t.Errorf("pixel at keypoint centre = r%d g%d, want red", r>>8, g>>8)
	}
}
