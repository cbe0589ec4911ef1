package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/keagan/vidfeatures/internal/ai"
	"github.com/keagan/vidfeatures/internal/config"
	"github.com/keagan/vidfeatures/internal/features"
	"github.com/keagan/vidfeatures/internal/ffmpeg"
	"github.com/keagan/vidfeatures/internal/frames"
	"github.com/keagan/vidfeatures/internal/logging"
	"github.com/rs/zerolog"
)

// Pipeline runs the three analyzers over one video
type Pipeline struct {
	logger    zerolog.Logger
	config    Config
	detectors ai.DetectorFactory
	prober    Prober
}

// New creates a pipeline. detectors is invoked once per analyzed video.
func New(logger zerolog.Logger, cfg Config, detectors ai.DetectorFactory) (*Pipeline, error) {
	if cfg.Stride < 1 {
		return nil, fmt.Errorf("frame stride must be >= 1, got %d", cfg.Stride)
	}
	if cfg.SampleRate < 1 {
		return nil, fmt.Errorf("sample rate must be >= 1, got %d", cfg.SampleRate)
	}
	if err := cfg.Flow.Validate(); err != nil {
		return nil, fmt.Errorf("motion: %w", err)
	}
	if detectors == nil {
		return nil, fmt.Errorf("detector factory is required")
	}

	return &Pipeline{
		logger:    logging.WithComponent(logger, "pipeline"),
		config:    cfg,
		detectors: detectors,
	}, nil
}

// NewFromConfig wires the YOLO detector and, when enabled, the ffprobe prober
func NewFromConfig(logger zerolog.Logger, appCfg *config.Config) (*Pipeline, error) {
	yolo := ai.DefaultYOLOConfig()
	yolo.ModelPath = appCfg.Detection.ModelPath
	yolo.LibraryPath = appCfg.Detection.LibraryPath
	yolo.InputSize = appCfg.Detection.InputSize
	yolo.Confidence = appCfg.Detection.Confidence
	yolo.IoU = appCfg.Detection.IoU

	p, err := New(logger, ConfigFrom(appCfg), ai.NewYOLOFactory(logger, yolo))
	if err != nil {
		return nil, err
	}

	if appCfg.FFmpeg.Probe {
		exec, err := ffmpeg.New(logger)
		if err != nil {
			logger.Warn().Err(err).Msg("ffprobe unavailable, skipping container probe")
		} else {
			p.WithProber(exec)
		}
	}

	return p, nil
}

// WithProber enables container probing before each load
func (p *Pipeline) WithProber(prober Prober) *Pipeline {
	p.prober = prober
	return p
}

// Extract loads path and computes its feature record. Clips with fewer than
// two sampled frames yield the zero record without running any analyzer.
func (p *Pipeline) Extract(ctx context.Context, path string) (features.Record, error) {
	name := filepath.Base(path)
	logger := p.logger.With().Str("video", name).Logger()

	if p.prober != nil {
		p.probe(ctx, logger, path)
	}

	seq, err := frames.Load(ctx, logger, path, p.config.Stride)
	if err != nil {
		return features.Record{}, err
	}
	defer seq.Close()

	if seq.Len() < 2 {
		logger.Warn().Int("frames", seq.Len()).Msg("not enough frames to analyze")
		return features.ZeroRecord(), nil
	}

	logger.Info().Msg("detecting hard cuts")
	cuts, err := features.NewCutDetector(logger, p.config.CutThreshold).Detect(seq.Frames)
	if err != nil {
		return features.Record{}, fmt.Errorf("hard cut detection failed: %w", err)
	}

	logger.Info().Msg("calculating average motion")
	motion, err := features.NewMotionEstimator(logger, p.config.Flow).Estimate(seq.Frames)
	if err != nil {
		return features.Record{}, fmt.Errorf("motion estimation failed: %w", err)
	}

	logger.Info().Msg("running object vs person detection")
	ratio, err := p.detectRatio(ctx, logger, seq)
	if err != nil {
		return features.Record{}, err
	}

	record := features.Record{
		HardCuts:          cuts,
		AverageMotion:     motion,
		PersonObjectRatio: ratio.Ratio,
	}

	logger.Info().
		Int("hard_cuts", record.HardCuts).
		Float64("average_motion", record.AverageMotion).
		Int("persons", ratio.Persons).
		Int("objects", ratio.Objects).
		Msg("features extracted")

	return record, nil
}

// detectRatio loads a detector for this video only and releases it afterwards
func (p *Pipeline) detectRatio(ctx context.Context, logger zerolog.Logger, seq *frames.Sequence) (ai.RatioResult, error) {
	det, err := p.detectors()
	if err != nil {
		return ai.RatioResult{}, fmt.Errorf("failed to load detector: %w", err)
	}
	defer func() {
		if err := det.Close(); err != nil {
			logger.Warn().Err(err).Msg("detector close failed")
		}
	}()

	res, err := ai.NewRatioEstimator(logger, p.config.SampleRate).Estimate(ctx, det, seq.Frames)
	if err != nil {
		return ai.RatioResult{}, fmt.Errorf("person/object detection failed: %w", err)
	}
	return res, nil
}

func (p *Pipeline) probe(ctx context.Context, logger zerolog.Logger, path string) {
	info, err := p.prober.ProbeVideo(ctx, path)
	if err != nil {
		logger.Debug().Err(err).Msg("container probe failed")
		return
	}

	logger.Info().
		Str("container", info.Container).
		Str("codec", info.VideoCodec).
		Dur("duration", info.Duration).
		Bool("has_audio", info.HasAudio).
		Msg("container probed")
}
