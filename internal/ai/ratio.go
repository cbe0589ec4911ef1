package ai

import (
	"context"
	"fmt"

	"github.com/keagan/vidfeatures/internal/features"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// DefaultSampleRate runs detection on every tenth retained frame
const DefaultSampleRate = 10

// RatioResult holds the accumulated detection counts and their ratio
type RatioResult struct {
	Persons int
	Objects int
	Sampled int
	Ratio   features.Ratio
}

// Ratio returns persons/objects. With no objects it is +Inf when any person
// was seen and 0 otherwise.
func Ratio(persons, objects int) features.Ratio {
	if objects == 0 {
		if persons > 0 {
			return features.Inf()
		}
		return 0
	}
	return features.Ratio(float64(persons) / float64(objects))
}

// RatioEstimator counts person and object detections over sub-sampled frames
type RatioEstimator struct {
	logger     zerolog.Logger
	sampleRate int
}

// NewRatioEstimator creates an estimator that samples every sampleRate-th frame
func NewRatioEstimator(logger zerolog.Logger, sampleRate int) *RatioEstimator {
	return &RatioEstimator{
		logger:     logger.With().Str("component", "ratio-estimator").Logger(),
		sampleRate: sampleRate,
	}
}

// PersonObjectRatio is Estimate with logging disabled
func PersonObjectRatio(ctx context.Context, det Detector, frames []gocv.Mat, sampleRate int) (RatioResult, error) {
	return NewRatioEstimator(zerolog.Nop(), sampleRate).Estimate(ctx, det, frames)
}

// Estimate runs det on frames 0, rate, 2*rate, ... and counts every detection.
// The same entity seen in several frames is counted once per frame.
func (e *RatioEstimator) Estimate(ctx context.Context, det Detector, frames []gocv.Mat) (RatioResult, error) {
	if e.sampleRate < 1 {
		return RatioResult{}, fmt.Errorf("sample rate must be >= 1, got %d", e.sampleRate)
	}

	var res RatioResult
	for i := 0; i < len(frames); i += e.sampleRate {
		detections, err := det.Detect(ctx, frames[i])
		if err != nil {
			return RatioResult{}, fmt.Errorf("detection on frame %d: %w", i, err)
		}
		res.Sampled++

		for _, d := range detections {
			switch d.Category() {
			case CategoryPerson:
				res.Persons++
			case CategoryObject:
				res.Objects++
			}
		}

		e.logger.Debug().
			Int("frame", i).
			Int("detections", len(detections)).
			Msg("frame detected")
	}

	res.Ratio = Ratio(res.Persons, res.Objects)

	e.logger.Debug().
		Int("sampled", res.Sampled).
		Int("persons", res.Persons).
		Int("objects", res.Objects).
		Msg("detection counts")

	return res, nil
}
