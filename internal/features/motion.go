package features

import (
	"fmt"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// FlowParams are the Farneback dense optical-flow parameters
type FlowParams struct {
	PyrScale   float64
	Levels     int
	WinSize    int
	Iterations int
	PolyN      int
	PolySigma  float64
	Flags      int
}

// DefaultFlowParams returns the fixed parameters used for motion estimation
func DefaultFlowParams() FlowParams {
	return FlowParams{
		PyrScale:   0.5,
		Levels:     3,
		WinSize:    15,
		Iterations: 3,
		PolyN:      5,
		PolySigma:  1.2,
		Flags:      0,
	}
}

// flowGaussian is OPTFLOW_FARNEBACK_GAUSSIAN. OPTFLOW_USE_INITIAL_FLOW is not
// accepted because the flow field is never seeded.
const flowGaussian = 256

// Validate rejects parameters that OpenCV would abort on instead of reporting
func (p FlowParams) Validate() error {
	switch {
	case p.PyrScale <= 0 || p.PyrScale >= 1:
		return fmt.Errorf("pyr_scale must be within (0,1), got %g", p.PyrScale)
	case p.Levels < 0:
		return fmt.Errorf("levels must be >= 0, got %d", p.Levels)
	case p.WinSize < 1:
		return fmt.Errorf("win_size must be >= 1, got %d", p.WinSize)
	case p.Iterations < 1:
		return fmt.Errorf("iterations must be >= 1, got %d", p.Iterations)
	case p.PolyN != 5 && p.PolyN != 7:
		return fmt.Errorf("poly_n must be 5 or 7, got %d", p.PolyN)
	case p.PolySigma <= 0:
		return fmt.Errorf("poly_sigma must be > 0, got %g", p.PolySigma)
	case p.Flags != 0 && p.Flags != flowGaussian:
		return fmt.Errorf("flags must be 0 or %d, got %d", flowGaussian, p.Flags)
	}
	return nil
}

// MotionEstimator averages dense optical-flow magnitude over a frame sequence
type MotionEstimator struct {
	logger zerolog.Logger
	params FlowParams
}

// NewMotionEstimator creates an estimator with the given flow parameters
func NewMotionEstimator(logger zerolog.Logger, params FlowParams) *MotionEstimator {
	return &MotionEstimator{
		logger: logger.With().Str("component", "motion-estimator").Logger(),
		params: params,
	}
}

// AverageMotion is Estimate with default logging disabled
func AverageMotion(frames []gocv.Mat, params FlowParams) (float64, error) {
	return NewMotionEstimator(zerolog.Nop(), params).Estimate(frames)
}

// Estimate returns the mean over consecutive pairs of the spatially averaged
// flow magnitude. Fewer than two frames yield 0.
func (m *MotionEstimator) Estimate(frames []gocv.Mat) (float64, error) {
	if len(frames) < 2 {
		return 0.0, nil
	}
	if err := m.params.Validate(); err != nil {
		return 0, fmt.Errorf("invalid flow params: %w", err)
	}

	prevGray := gocv.NewMat()
	defer prevGray.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	flow := gocv.NewMat()
	defer flow.Close()

	if err := toGray(frames[0], &prevGray); err != nil {
		return 0, fmt.Errorf("frame 0: %w", err)
	}

	var total float64
	pairs := 0
	for i := 1; i < len(frames); i++ {
		if err := toGray(frames[i], &gray); err != nil {
			return 0, fmt.Errorf("frame %d: %w", i, err)
		}
		if gray.Rows() != prevGray.Rows() || gray.Cols() != prevGray.Cols() {
			return 0, fmt.Errorf("frame %d: size %dx%d differs from previous %dx%d",
				i, gray.Cols(), gray.Rows(), prevGray.Cols(), prevGray.Rows())
		}

		gocv.CalcOpticalFlowFarneback(prevGray, gray, &flow,
			m.params.PyrScale, m.params.Levels, m.params.WinSize,
			m.params.Iterations, m.params.PolyN, m.params.PolySigma, m.params.Flags)

		magnitude := meanMagnitude(flow)
		m.logger.Debug().Int("pair", i).Float64("magnitude", magnitude).Msg("optical flow computed")

		total += magnitude
		pairs++

		gray.CopyTo(&prevGray)
	}

	return total / float64(pairs), nil
}

// meanMagnitude averages the per-pixel length of a 2-channel flow field
func meanMagnitude(flow gocv.Mat) float64 {
	channels := gocv.Split(flow)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	magnitude := gocv.NewMat()
	defer magnitude.Close()
	angle := gocv.NewMat()
	defer angle.Close()

	gocv.CartToPolar(channels[0], channels[1], &magnitude, &angle, false)
	return magnitude.Mean().Val1
}
