package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/angle.report/internal/config"
	"github.com/banshee-data/angle.report/internal/posefeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, ":8080", *listen)
	assert.Equal(t, ":50051", *grpcListen)
	assert.Equal(t, posefeed.DefaultBaudRate, *baud)
	assert.Equal(t, uint(5005), *pcapPort)
	assert.Equal(t, 1.0, *pcapSpeed)
	assert.False(t, *devMode)
	assert.False(t, *disableDB)
	assert.Empty(t, *configPath)
}

func TestLoadTuning(t *testing.T) {
	cfg, err := loadTuning("")
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.GetMinPoseScore())

	cfg, err = loadTuning(filepath.Join("..", "..", config.DefaultConfigPath))
	require.NoError(t, err)
	th := thresholds(cfg)
	assert.Equal(t, 0.2, th.MinPoseScore)
	assert.Equal(t, 0.1, th.MinPartScore)

	_, err = loadTuning(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestOpenFeed_Dev(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.txt")
	require.NoError(t, os.WriteFile(path, []byte("READY\n[]\n"), 0644))

	oldDev, oldFixtures := *devMode, *fixtures
	*devMode, *fixtures = true, path
	t.Cleanup(func() { *devMode, *fixtures = oldDev, oldFixtures })

	feed, err := openFeed(config.DefaultTuningConfig())
	require.NoError(t, err)
	defer feed.Close()
	_, ok := feed.(*posefeed.Mux[*posefeed.ReplayPort])
	assert.True(t, ok)
}

func TestOpenFeed_Pcap(t *testing.T) {
	old := *pcapFile
	*pcapFile = "capture.pcap"
	t.Cleanup(func() { *pcapFile = old })

	feed, err := openFeed(config.DefaultTuningConfig())
	require.NoError(t, err)
	defer feed.Close()
	_, ok := feed.(*posefeed.Disabled)
	assert.True(t, ok)
}

func TestBundledFixtures(t *testing.T) {
	lines, err := posefeed.LoadFixtures(filepath.Join("..", "..", "fixtures.txt"))
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.Equal(t, "READY", lines[0])

	batches := 0
	for _, l := range lines {
		if posefeed.ClassifyLine(l) == posefeed.LineTypeBatch {
			batches++
			assert.True(t, strings.HasPrefix(l, "["))
		}
	}
	assert.Equal(t, 20, batches)
}
