package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Frames.Stride)
	assert.Equal(t, 0.6, cfg.Cuts.Threshold)
	assert.Equal(t, 10, cfg.Detection.SampleRate)
	assert.Equal(t, 15, cfg.Motion.WinSize)
	assert.Equal(t, "SampleVideo", cfg.Batch.Prefix)
	assert.Equal(t, ".mp4", cfg.Batch.Extension)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
frames:
  stride: 2
cuts:
  threshold: 0.4
batch:
  dir: /data/clips
  fold_prefix: true
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Frames.Stride)
	assert.Equal(t, 0.4, cfg.Cuts.Threshold)
	assert.Equal(t, "/data/clips", cfg.Batch.Dir)
	assert.True(t, cfg.Batch.FoldPrefix)
	// untouched sections keep their defaults
	assert.Equal(t, 10, cfg.Detection.SampleRate)
	assert.Equal(t, "SampleVideo", cfg.Batch.Prefix)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadDefersValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("frames:\n  stride: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "frames.stride")

	cfg.Frames.Stride = 3
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("frames: [\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"threshold above one", func(c *Config) { c.Cuts.Threshold = 1.5 }, "cuts.threshold"},
		{"zero sample rate", func(c *Config) { c.Detection.SampleRate = 0 }, "detection.sample_rate"},
		{"negative confidence", func(c *Config) { c.Detection.Confidence = -0.1 }, "detection.confidence"},
		{"iou above one", func(c *Config) { c.Detection.IoU = 2 }, "detection.iou"},
		{"odd input size", func(c *Config) { c.Detection.InputSize = 600 }, "detection.input_size"},
		{"pyramid scale above one", func(c *Config) { c.Motion.PyrScale = 1.5 }, "motion.pyr_scale"},
		{"negative levels", func(c *Config) { c.Motion.Levels = -1 }, "motion.levels"},
		{"zero window", func(c *Config) { c.Motion.WinSize = 0 }, "motion.win_size"},
		{"zero iterations", func(c *Config) { c.Motion.Iterations = 0 }, "motion.iterations"},
		{"poly n of three", func(c *Config) { c.Motion.PolyN = 3 }, "motion.poly_n"},
		{"zero sigma", func(c *Config) { c.Motion.PolySigma = 0 }, "motion.poly_sigma"},
		{"initial flow flag", func(c *Config) { c.Motion.Flags = 4 }, "motion.flags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.field)
		})
	}
}

func TestLoadedMotionIsValidated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("motion:\n  poly_n: 3\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "motion.poly_n")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Frames.Stride = 3

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestContextHelpers(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))

	cfg := Default()
	cfg.Batch.Dir = "elsewhere"
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
