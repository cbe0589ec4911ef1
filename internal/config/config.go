package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Frame sampling
	Frames FramesConfig `yaml:"frames"`

	// Analyzer settings
	Cuts      CutsConfig      `yaml:"cuts"`
	Motion    MotionConfig    `yaml:"motion"`
	Detection DetectionConfig `yaml:"detection"`

	// Input selection
	Batch BatchConfig `yaml:"batch"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
}

type FramesConfig struct {
	Stride int `yaml:"stride"`
}

type CutsConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// MotionConfig mirrors the Farneback parameters
type MotionConfig struct {
	PyrScale   float64 `yaml:"pyr_scale"`
	Levels     int     `yaml:"levels"`
	WinSize    int     `yaml:"win_size"`
	Iterations int     `yaml:"iterations"`
	PolyN      int     `yaml:"poly_n"`
	PolySigma  float64 `yaml:"poly_sigma"`
	Flags      int     `yaml:"flags"`
}

type DetectionConfig struct {
	ModelPath   string  `yaml:"model_path"`
	LibraryPath string  `yaml:"library_path"` // onnxruntime shared library, empty uses the loader default
	SampleRate  int     `yaml:"sample_rate"`
	Confidence  float64 `yaml:"confidence"`
	IoU         float64 `yaml:"iou"`
	InputSize   int     `yaml:"input_size"`
}

type BatchConfig struct {
	Dir        string `yaml:"dir"`
	Prefix     string `yaml:"prefix"`
	Extension  string `yaml:"extension"`
	FoldPrefix bool   `yaml:"fold_prefix"`
}

type FFmpegConfig struct {
	Probe bool `yaml:"probe"`
}

// Load reads configuration from file or returns defaults. The result is not
// validated so callers can apply overrides first; call Validate afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the analyzers cannot run with
func (c *Config) Validate() error {
	if c.Frames.Stride < 1 {
		return fmt.Errorf("frames.stride must be >= 1, got %d", c.Frames.Stride)
	}
	if c.Cuts.Threshold < 0 || c.Cuts.Threshold > 1 {
		return fmt.Errorf("cuts.threshold must be within [0,1], got %g", c.Cuts.Threshold)
	}
	if err := c.Motion.validate(); err != nil {
		return err
	}
	if c.Detection.SampleRate < 1 {
		return fmt.Errorf("detection.sample_rate must be >= 1, got %d", c.Detection.SampleRate)
	}
	if c.Detection.Confidence < 0 || c.Detection.Confidence > 1 {
		return fmt.Errorf("detection.confidence must be within [0,1], got %g", c.Detection.Confidence)
	}
	if c.Detection.IoU < 0 || c.Detection.IoU > 1 {
		return fmt.Errorf("detection.iou must be within [0,1], got %g", c.Detection.IoU)
	}
	if c.Detection.InputSize <= 0 || c.Detection.InputSize%32 != 0 {
		return fmt.Errorf("detection.input_size must be a positive multiple of 32, got %d", c.Detection.InputSize)
	}
	return nil
}

// validate mirrors the Farneback preconditions so bad YAML fails here rather
// than inside OpenCV
func (m MotionConfig) validate() error {
	if m.PyrScale <= 0 || m.PyrScale >= 1 {
		return fmt.Errorf("motion.pyr_scale must be within (0,1), got %g", m.PyrScale)
	}
	if m.Levels < 0 {
		return fmt.Errorf("motion.levels must be >= 0, got %d", m.Levels)
	}
	if m.WinSize < 1 {
		return fmt.Errorf("motion.win_size must be >= 1, got %d", m.WinSize)
	}
	if m.Iterations < 1 {
		return fmt.Errorf("motion.iterations must be >= 1, got %d", m.Iterations)
	}
	if m.PolyN != 5 && m.PolyN != 7 {
		return fmt.Errorf("motion.poly_n must be 5 or 7, got %d", m.PolyN)
	}
	if m.PolySigma <= 0 {
		return fmt.Errorf("motion.poly_sigma must be > 0, got %g", m.PolySigma)
	}
	if m.Flags != 0 && m.Flags != 256 {
		return fmt.Errorf("motion.flags must be 0 or 256 (gaussian window), got %d", m.Flags)
	}
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Frames: FramesConfig{
			Stride: 5,
		},
		Cuts: CutsConfig{
			Threshold: 0.6,
		},
		Motion: MotionConfig{
			PyrScale:   0.5,
			Levels:     3,
			WinSize:    15,
			Iterations: 3,
			PolyN:      5,
			PolySigma:  1.2,
			Flags:      0,
		},
		Detection: DetectionConfig{
			ModelPath:  "./models/yolov8n.onnx",
			SampleRate: 10,
			Confidence: 0.25,
			IoU:        0.7,
			InputSize:  640,
		},
		Batch: BatchConfig{
			Dir:       "./videos",
			Prefix:    "SampleVideo",
			Extension: ".mp4",
		},
		FFmpeg: FFmpegConfig{
			Probe: true,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".vidfeatures", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
