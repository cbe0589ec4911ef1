package features

import (
	"fmt"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// DefaultCutThreshold is the Bhattacharyya distance above which a pair counts as a cut
const DefaultCutThreshold = 0.6

const histBins = 256

// CutDetector counts hard cuts by comparing intensity histograms of consecutive frames
type CutDetector struct {
	logger    zerolog.Logger
	threshold float64
}

// NewCutDetector creates a detector with the given dissimilarity threshold
func NewCutDetector(logger zerolog.Logger, threshold float64) *CutDetector {
	return &CutDetector{
		logger:    logger.With().Str("component", "cut-detector").Logger(),
		threshold: threshold,
	}
}

// DetectHardCuts counts consecutive pairs whose histogram distance exceeds threshold
func DetectHardCuts(frames []gocv.Mat, threshold float64) (int, error) {
	return NewCutDetector(zerolog.Nop(), threshold).Detect(frames)
}

// Detect returns the number of hard cuts in frames. Fewer than two frames yield 0.
func (d *CutDetector) Detect(frames []gocv.Mat) (int, error) {
	if len(frames) < 2 {
		return 0, nil
	}

	var prev gocv.Mat
	havePrev := false
	defer func() {
		if havePrev {
			prev.Close()
		}
	}()

	cuts := 0
	for i, frame := range frames {
		hist, err := histogram(frame)
		if err != nil {
			return 0, fmt.Errorf("histogram of frame %d: %w", i, err)
		}

		if havePrev {
			distance := gocv.CompareHist(prev, hist, gocv.HistCmpBhattacharya)
			if float64(distance) > d.threshold {
				cuts++
			}
			d.logger.Debug().
				Int("frame", i).
				Float32("distance", distance).
				Bool("cut", float64(distance) > d.threshold).
				Msg("histogram compared")
			prev.Close()
		}
		prev = hist
		havePrev = true
	}

	return cuts, nil
}

// histogram computes the L2-normalized 256-bin intensity histogram of frame
func histogram(frame gocv.Mat) (gocv.Mat, error) {
	gray := gocv.NewMat()
	defer gray.Close()

	if err := toGray(frame, &gray); err != nil {
		return gocv.Mat{}, err
	}

	mask := gocv.NewMat()
	defer mask.Close()

	hist := gocv.NewMat()
	gocv.CalcHist([]gocv.Mat{gray}, []int{0}, mask, &hist, []int{histBins}, []float64{0, histBins}, false)
	gocv.Normalize(hist, &hist, 1, 0, gocv.NormL2)

	return hist, nil
}
