package pipeline

import (
	"context"

	"github.com/keagan/vidfeatures/internal/config"
	"github.com/keagan/vidfeatures/internal/features"
	"github.com/keagan/vidfeatures/internal/ffmpeg"
)

// Config holds the per-video analysis parameters
type Config struct {
	Stride       int
	CutThreshold float64
	Flow         features.FlowParams
	SampleRate   int
}

// ConfigFrom extracts analysis parameters from the application config
func ConfigFrom(appCfg *config.Config) Config {
	m := appCfg.Motion
	return Config{
		Stride:       appCfg.Frames.Stride,
		CutThreshold: appCfg.Cuts.Threshold,
		Flow: features.FlowParams{
			PyrScale:   m.PyrScale,
			Levels:     m.Levels,
			WinSize:    m.WinSize,
			Iterations: m.Iterations,
			PolyN:      m.PolyN,
			PolySigma:  m.PolySigma,
			Flags:      m.Flags,
		},
		SampleRate: appCfg.Detection.SampleRate,
	}
}

// Prober reports container metadata ahead of decoding
type Prober interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// Extractor turns one video into a feature record
type Extractor interface {
	Extract(ctx context.Context, path string) (features.Record, error)
}

// Result is a successfully processed video
type Result struct {
	Name   string
	Path   string
	Record features.Record
}

// Failure is a video whose processing returned an error
type Failure struct {
	Name string
	Path string
	Err  error
}

// Report lists per-file outcomes in iteration order
type Report struct {
	Results  []Result
	Failures []Failure
}

// Total is the number of files attempted
func (r *Report) Total() int {
	return len(r.Results) + len(r.Failures)
}
