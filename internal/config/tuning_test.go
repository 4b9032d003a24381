package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.2, cfg.GetMinPoseScore())
	assert.Equal(t, 0.1, cfg.GetMinPartScore())
	assert.Equal(t, 0.2, cfg.GetDrawKeypointScore())
	assert.Equal(t, 10.0, cfg.GetKeypointSize())
	assert.Equal(t, 200*time.Millisecond, cfg.GetWarningDebounce())
	assert.Equal(t, 500, cfg.GetHistoryLimit())

	w, h := cfg.GetCaptureSize()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	empty := &TuningConfig{}
	def := DefaultTuningConfig()

	assert.Equal(t, def.GetMinPoseScore(), empty.GetMinPoseScore())
	assert.Equal(t, def.GetMinPartScore(), empty.GetMinPartScore())
	assert.Equal(t, def.GetWarningDebounce(), empty.GetWarningDebounce())
	assert.Equal(t, def.GetReplayInterval(), empty.GetReplayInterval())
	assert.Equal(t, def.GetEstimator(), empty.GetEstimator())
}

// The checked-in defaults file must agree with DefaultTuningConfig.
func TestDefaultsFileMatches(t *testing.T) {
	cfg, err := LoadTuningConfig(filepath.Join("..", "..", DefaultConfigPath))
	require.NoError(t, err)
	assert.Equal(t, DefaultTuningConfig(), cfg)
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "min_pose_score": 0.3,
  "warning_debounce": "1s",
  "capture_width": 320,
  "estimator": {"detectionType": "multiple", "outputStride": 8}
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetMinPoseScore(); got != 0.3 {
		t.Errorf("Expected MinPoseScore 0.3, got %v", got)
	}
	if got := cfg.GetMinPartScore(); got != 0.1 {
		t.Errorf("Expected default MinPartScore 0.1, got %v", got)
	}
	if got := cfg.GetWarningDebounce(); got != time.Second {
		t.Errorf("Expected WarningDebounce 1s, got %v", got)
	}
	if w, h := cfg.GetCaptureSize(); w != 320 || h != 480 {
		t.Errorf("Expected capture 320x480, got %dx%d", w, h)
	}
	est := cfg.GetEstimator()
	if est.DetectionType != "multiple" || est.OutputStride != 8 {
		t.Errorf("Unexpected estimator options %+v", est)
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigWrongExtension(t *testing.T) {
	_, err := LoadTuningConfig("config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".json")
}

func TestLoadTuningConfigTooLarge(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "big.json")
	big := `{"min_pose_score": 0.2` + strings.Repeat(" ", 1024*1024) + `}`
	require.NoError(t, os.WriteFile(configPath, []byte(big), 0644))

	_, err := LoadTuningConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "min_pose_score": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultTuningConfig(),
			wantErr: false,
		},
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name:    "pose score below zero",
			cfg:     &TuningConfig{MinPoseScore: ptrFloat64(-0.1)},
			wantErr: true,
		},
		{
			name:    "part score above one",
			cfg:     &TuningConfig{MinPartScore: ptrFloat64(1.5)},
			wantErr: true,
		},
		{
			name:    "zero keypoint size",
			cfg:     &TuningConfig{KeypointSize: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "negative capture width",
			cfg:     &TuningConfig{CaptureWidth: ptrInt(-1)},
			wantErr: true,
		},
		{
			name:    "zero history limit",
			cfg:     &TuningConfig{HistoryLimit: ptrInt(0)},
			wantErr: true,
		},
		{
			name:    "invalid debounce",
			cfg:     &TuningConfig{WarningDebounce: ptrString("soon")},
			wantErr: true,
		},
		{
			name:    "negative replay interval",
			cfg:     &TuningConfig{ReplayInterval: ptrString("-1s")},
			wantErr: true,
		},
		{
			name:    "unknown detection type",
			cfg:     &TuningConfig{Estimator: &EstimatorOptions{DetectionType: "many"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetWarningDebounce(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TuningConfig
		want time.Duration
	}{
		{"explicit", &TuningConfig{WarningDebounce: ptrString("50ms")}, 50 * time.Millisecond},
		{"empty string", &TuningConfig{WarningDebounce: ptrString("")}, 200 * time.Millisecond},
		{"unparseable falls back", &TuningConfig{WarningDebounce: ptrString("x")}, 200 * time.Millisecond},
		{"nil", &TuningConfig{}, 200 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetWarningDebounce(); got != tt.want {
				t.Errorf("GetWarningDebounce() = %v, want %v", got, tt.want)
			}
		})
	}
}
