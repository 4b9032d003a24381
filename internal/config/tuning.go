package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root configuration for the angle pipeline and its
// surfaces. Every field is optional; Get* accessors fall back to defaults
// so partial configs are safe.
type TuningConfig struct {
	// Visibility thresholds
	MinPoseScore      *float64 `json:"min_pose_score,omitempty"`
	MinPartScore      *float64 `json:"min_part_score,omitempty"`
	DrawKeypointScore *float64 `json:"draw_keypoint_score,omitempty"`
	KeypointSize      *float64 `json:"keypoint_size,omitempty"`

	// Capture frame size, in pixels
	CaptureWidth  *int `json:"capture_width,omitempty"`
	CaptureHeight *int `json:"capture_height,omitempty"`

	// Warning toast
	WarningDebounce *string `json:"warning_debounce,omitempty"` // duration string like "200ms"

	// API listing
	HistoryLimit *int `json:"history_limit,omitempty"`

	// Fixture replay interval in dev mode
	ReplayInterval *string `json:"replay_interval,omitempty"`

	// Estimator options are forwarded to the pose estimator unchanged.
	Estimator *EstimatorOptions `json:"estimator,omitempty"`
}

// EstimatorOptions are the pose estimator's model parameters. They are
// opaque to the pipeline and only forwarded at start-up.
type EstimatorOptions struct {
	ImageScaleFactor float64 `json:"imageScaleFactor"`
	OutputStride     int     `json:"outputStride"`
	FlipHorizontal   bool    `json:"flipHorizontal"`
	MinConfidence    float64 `json:"minConfidence"`
	ScoreThreshold   float64 `json:"scoreThreshold"`
	NMSRadius        int     `json:"nmsRadius"`
	DetectionType    string  `json:"detectionType"`
	Multiplier       float64 `json:"multiplier"`
}

// DefaultEstimatorOptions returns the single-pose model settings.
func DefaultEstimatorOptions() EstimatorOptions {
	return EstimatorOptions{
		ImageScaleFactor: 0.3,
		OutputStride:     16,
		FlipHorizontal:   false,
		MinConfidence:    0.5,
		ScoreThreshold:   0.5,
		NMSRadius:        20,
		DetectionType:    "single",
		Multiplier:       0.75,
	}
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultTuningConfig returns a TuningConfig with every field populated.
func DefaultTuningConfig() *TuningConfig {
	est := DefaultEstimatorOptions()
	return &TuningConfig{
		MinPoseScore:      ptrFloat64(0.2),
		MinPartScore:      ptrFloat64(0.1),
		DrawKeypointScore: ptrFloat64(0.2),
		KeypointSize:      ptrFloat64(10),
		CaptureWidth:      ptrInt(640),
		CaptureHeight:     ptrInt(480),
		WarningDebounce:   ptrString("200ms"),
		HistoryLimit:      ptrInt(500),
		ReplayInterval:    ptrString("100ms"),
		Estimator:         &est,
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	for name, v := range map[string]*float64{
		"min_pose_score":      c.MinPoseScore,
		"min_part_score":      c.MinPartScore,
		"draw_keypoint_score": c.DrawKeypointScore,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}

	if c.KeypointSize != nil && *c.KeypointSize <= 0 {
		return fmt.Errorf("keypoint_size must be positive, got %f", *c.KeypointSize)
	}
	if c.CaptureWidth != nil && *c.CaptureWidth <= 0 {
		return fmt.Errorf("capture_width must be positive, got %d", *c.CaptureWidth)
	}
	if c.CaptureHeight != nil && *c.CaptureHeight <= 0 {
		return fmt.Errorf("capture_height must be positive, got %d", *c.CaptureHeight)
	}
	if c.HistoryLimit != nil && *c.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be at least 1, got %d", *c.HistoryLimit)
	}

	if c.WarningDebounce != nil && *c.WarningDebounce != "" {
		if _, err := time.ParseDuration(*c.WarningDebounce); err != nil {
			return fmt.Errorf("invalid warning_debounce '%s': %w", *c.WarningDebounce, err)
		}
	}
	if c.ReplayInterval != nil && *c.ReplayInterval != "" {
		d, err := time.ParseDuration(*c.ReplayInterval)
		if err != nil {
			return fmt.Errorf("invalid replay_interval '%s': %w", *c.ReplayInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("replay_interval must be positive, got %s", d)
		}
	}

	if c.Estimator != nil && c.Estimator.DetectionType != "" &&
		c.Estimator.DetectionType != "single" && c.Estimator.DetectionType != "multiple" {
		return fmt.Errorf("estimator.detectionType must be 'single' or 'multiple', got %q", c.Estimator.DetectionType)
	}

	return nil
}

// GetMinPoseScore returns the min_pose_score value or the default.
func (c *TuningConfig) GetMinPoseScore() float64 {
	if c.MinPoseScore == nil {
		return 0.2
	}
	return *c.MinPoseScore
}

// GetMinPartScore returns the min_part_score value or the default.
func (c *TuningConfig) GetMinPartScore() float64 {
	if c.MinPartScore == nil {
		return 0.1
	}
	return *c.MinPartScore
}

// GetDrawKeypointScore returns the draw_keypoint_score value or the default.
func (c *TuningConfig) GetDrawKeypointScore() float64 {
	if c.DrawKeypointScore == nil {
		return 0.2
	}
	return *c.DrawKeypointScore
}

// GetKeypointSize returns the keypoint_size value or the default.
func (c *TuningConfig) GetKeypointSize() float64 {
	if c.KeypointSize == nil {
		return 10
	}
	return *c.KeypointSize
}

// GetCaptureSize returns the capture frame width and height.
func (c *TuningConfig) GetCaptureSize() (width, height int) {
	width, height = 640, 480
	if c.CaptureWidth != nil {
		width = *c.CaptureWidth
	}
	if c.CaptureHeight != nil {
		height = *c.CaptureHeight
	}
	return width, height
}

// GetWarningDebounce parses and returns the WarningDebounce as a time.Duration.
func (c *TuningConfig) GetWarningDebounce() time.Duration {
	if c.WarningDebounce == nil || *c.WarningDebounce == "" {
		return 200 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.WarningDebounce)
	if err != nil {
		return 200 * time.Millisecond
	}
	return d
}

// GetReplayInterval parses and returns the ReplayInterval as a time.Duration.
func (c *TuningConfig) GetReplayInterval() time.Duration {
	if c.ReplayInterval == nil || *c.ReplayInterval == "" {
		return 100 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.ReplayInterval)
	if err != nil || d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

// GetHistoryLimit returns the history_limit value or the default.
func (c *TuningConfig) GetHistoryLimit() int {
	if c.HistoryLimit == nil {
		return 500
	}
	return *c.HistoryLimit
}

// GetEstimator returns the estimator options or the defaults.
func (c *TuningConfig) GetEstimator() EstimatorOptions {
	if c.Estimator == nil {
		return DefaultEstimatorOptions()
	}
	return *c.Estimator
}
