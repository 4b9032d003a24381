package pose

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeBatch parses one estimator callback payload: a JSON array of
// detections, or a single detection object. An empty array is a valid batch
// with no bodies in view.
func DecodeBatch(payload []byte) ([]Detection, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty pose payload")
	}

	var detections []Detection
	switch payload[0] {
	case '[':
		if err := json.Unmarshal(payload, &detections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pose batch: %w", err)
		}
	case '{':
		var d Detection
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pose detection: %w", err)
		}
		detections = []Detection{d}
	default:
		return nil, fmt.Errorf("unexpected pose payload prefix %q", payload[0])
	}

	for i, d := range detections {
		for _, kp := range d.Pose.Keypoints {
			if !kp.Part.Valid() {
				return nil, fmt.Errorf("detection %d: %w: %q", i, ErrUnknownPart, kp.Part)
			}
		}
	}
	return detections, nil
}

// EncodeBatch is the inverse of DecodeBatch, used by fixtures and tests.
func EncodeBatch(detections []Detection) ([]byte, error) {
	if detections == nil {
		detections = []Detection{}
	}
	b, err := json.Marshal(detections)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pose batch: %w", err)
	}
	return b, nil
}
