// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/angle.report/internal/pose"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// ConfidentPose returns a pose with all twelve required parts at score 0.9
// and an overall score of 0.5. The left arm is laid out so the left elbow
// angle is exactly 90 degrees; the other limbs use non-degenerate
// coordinates.
func ConfidentPose() pose.Pose {
	kp := func(part pose.Part, x, y float64) pose.Keypoint {
		return pose.Keypoint{Part: part, Position: pose.Point{X: x, Y: y}, Score: 0.9}
	}
	return pose.Pose{
		Score: 0.5,
		Keypoints: []pose.Keypoint{
			kp(pose.Nose, 50, 10),
			kp(pose.LeftShoulder, 0, 0),
			kp(pose.RightShoulder, 100, 0),
			kp(pose.LeftElbow, 1, 1),
			kp(pose.RightElbow, 110, 30),
			kp(pose.LeftWrist, 2, 0),
			kp(pose.RightWrist, 130, 40),
			kp(pose.LeftHip, 20, 100),
			kp(pose.RightHip, 80, 100),
			kp(pose.LeftKnee, 25, 150),
			kp(pose.RightKnee, 85, 150),
			kp(pose.LeftAnkle, 20, 200),
			kp(pose.RightAnkle, 90, 200),
		},
	}
}

// WithPartScore returns a copy of p with the score of every keypoint
// labelled part replaced.
func WithPartScore(p pose.Pose, part pose.Part, score float64) pose.Pose {
	out := pose.Pose{Score: p.Score, Keypoints: make([]pose.Keypoint, len(p.Keypoints))}
	copy(out.Keypoints, p.Keypoints)
	for i := range out.Keypoints {
		if out.Keypoints[i].Part == part {
			out.Keypoints[i].Score = score
		}
	}
	return out
}

// Detections wraps poses as a detection batch without skeletons.
func Detections(poses ...pose.Pose) []pose.Detection {
	out := make([]pose.Detection, len(poses))
	for i, p := range poses {
		out[i] = pose.Detection{Pose: p}
	}
	return out
}
