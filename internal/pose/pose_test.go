package pose

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPartValid(t *testing.T) {
	tests := []struct {
		part Part
		want bool
	}{
		{LeftShoulder, true},
		{Nose, true},
		{RightAnkle, true},
		{"leftshoulder", false},
		{"", false},
		{"tail", false},
	}
	for _, tt := range tests {
		if got := tt.part.Valid(); got != tt.want {
			t.Errorf("Part(%q).Valid() = %v, want %v", tt.part, got, tt.want)
		}
	}
}

func TestRequiredPartsAreDistinct(t *testing.T) {
	seen := make(map[Part]bool)
	for _, p := range RequiredParts {
		if seen[p] {
			t.Fatalf("duplicate required part %q", p)
		}
		if !p.Valid() {
			t.Fatalf("required part %q is not a known label", p)
		}
		seen[p] = true
	}
}

func TestFind(t *testing.T) {
	p := Pose{
		Score: 0.8,
		Keypoints: []Keypoint{
			{Part: LeftElbow, Position: Point{X: 10, Y: 20}, Score: 0.9},
			{Part: LeftElbow, Position: Point{X: 99, Y: 99}, Score: 0.01},
			{Part: LeftWrist, Position: Point{X: 1, Y: 2}, Score: 0.05},
			{Part: LeftKnee, Position: Point{X: math.NaN(), Y: 2}, Score: 0.9},
			{Part: RightKnee, Position: Point{X: 3, Y: 4}, Score: math.NaN()},
		},
	}

	tests := []struct {
		name string
		part Part
		want Lookup
	}{
		{
			name: "first match wins",
			part: LeftElbow,
			want: Lookup{Part: LeftElbow, Position: Point{X: 10, Y: 20}, Score: 0.9, Visibility: Found},
		},
		{
			name: "below threshold",
			part: LeftWrist,
			want: Lookup{Part: LeftWrist, Position: Point{X: 1, Y: 2}, Score: 0.05, Visibility: LowScore},
		},
		{
			name: "missing label",
			part: RightAnkle,
			want: Lookup{Part: RightAnkle, Visibility: Absent},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Find(tt.part, 0.1)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Find(%q) mismatch (-want +got):\n%s", tt.part, diff)
			}
		})
	}

	if got := p.Find(LeftKnee, 0.1).Visibility; got != NonFinite {
		t.Errorf("NaN coordinate: visibility = %v, want %v", got, NonFinite)
	}
	if got := p.Find(RightKnee, 0.1).Visibility; got != NonFinite {
		t.Errorf("NaN score: visibility = %v, want %v", got, NonFinite)
	}
}

func TestFind_ScoreAtThresholdIsFound(t *testing.T) {
	p := Pose{Keypoints: []Keypoint{{Part: LeftHip, Score: 0.1}}}
	if !p.Find(LeftHip, 0.1).Ok() {
		t.Error("score equal to threshold should be found")
	}
}

func TestDecodeBatch(t *testing.T) {
	payload := `[{"pose":{"score":0.5,"keypoints":[
		{"part":"leftShoulder","score":0.9,"position":{"x":1.5,"y":2}},
		{"part":"leftElbow","score":0.8,"position":{"x":3,"y":4}}]},
		"skeleton":[[{"part":"leftShoulder","score":0.9,"position":{"x":1.5,"y":2}},
		             {"part":"leftElbow","score":0.8,"position":{"x":3,"y":4}}]]}]`

	got, err := DecodeBatch([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeBatch failed: %v", err)
	}

	shoulder := Keypoint{Part: LeftShoulder, Position: Point{X: 1.5, Y: 2}, Score: 0.9}
	elbow := Keypoint{Part: LeftElbow, Position: Point{X: 3, Y: 4}, Score: 0.8}
	want := []Detection{{
		Pose:     Pose{Score: 0.5, Keypoints: []Keypoint{shoulder, elbow}},
		Skeleton: [][2]Keypoint{{shoulder, elbow}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeBatch mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeBatch_SingleObjectAndEmpty(t *testing.T) {
	got, err := DecodeBatch([]byte(`{"pose":{"score":0.3,"keypoints":[]}}`))
	if err != nil {
		t.Fatalf("DecodeBatch(object) failed: %v", err)
	}
	if len(got) != 1 || got[0].Pose.Score != 0.3 {
		t.Errorf("DecodeBatch(object) = %+v, want one detection with score 0.3", got)
	}

	got, err = DecodeBatch([]byte(" [] \n"))
	if err != nil {
		t.Fatalf("DecodeBatch(empty) failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("DecodeBatch(empty) returned %d detections, want 0", len(got))
	}
}

func TestDecodeBatch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		unknown bool
	}{
		{"blank", "   ", false},
		{"not json", "12,3,4", false},
		{"truncated", `[{"pose":`, false},
		{"unknown part", `[{"pose":{"score":1,"keypoints":[{"part":"tail","score":1,"position":{"x":0,"y":0}}]}}]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBatch([]byte(tt.payload))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := errors.Is(err, ErrUnknownPart); got != tt.unknown {
				t.Errorf("errors.Is(err, ErrUnknownPart) = %v, want %v (err=%v)", got, tt.unknown, err)
			}
		})
	}
}

func TestEncodeBatch_RoundTrip(t *testing.T) {
	in := []Detection{{Pose: Pose{Score: 0.7, Keypoints: []Keypoint{{Part: RightHip, Position: Point{X: 5, Y: 6}, Score: 0.4}}}}}
	b, err := EncodeBatch(in)
	if err != nil {
		t.Fatalf("EncodeBatch failed: %v", err)
	}
	out, err := DecodeBatch(b)
	if err != nil {
		t.Fatalf("DecodeBatch failed: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	b, err = EncodeBatch(nil)
	if err != nil {
		t.Fatalf("EncodeBatch(nil) failed: %v", err)
	}
	if string(b) != "[]" {
		t.Errorf("EncodeBatch(nil) = %s, want []", b)
	}
}
