package frames

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/keagan/vidfeatures/pkg/util"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Load decodes path from start to end and keeps every stride-th frame.
// It returns either the complete sequence or an error, never a partial result.
func Load(ctx context.Context, logger zerolog.Logger, path string, stride int) (*Sequence, error) {
	if stride < 1 {
		return nil, fmt.Errorf("frame stride must be >= 1, got %d", stride)
	}

	if !util.FileExists(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	capture, err := gocv.VideoCaptureFile(path)
	if capture != nil {
		defer capture.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnopenable, path, err)
	}

	if !capture.IsOpened() {
		return nil, fmt.Errorf("%w: %s", ErrUnopenable, path)
	}

	info := Metadata{
		Name:        filepath.Base(path),
		TotalFrames: reportedCount(capture.Get(gocv.VideoCaptureFrameCount)),
		FPS:         capture.Get(gocv.VideoCaptureFPS),
		Width:       int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:      int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}

	logger.Info().
		Str("video", info.Name).
		Int("total_frames", info.TotalFrames).
		Float64("fps", info.FPS).
		Int("width", info.Width).
		Int("height", info.Height).
		Msg("video info")

	seq := &Sequence{
		Stride: stride,
		Info:   info,
		Frames: make([]gocv.Mat, 0, initialCapacity(info.TotalFrames, stride)),
	}

	img := gocv.NewMat()
	defer img.Close()

	for {
		if err := ctx.Err(); err != nil {
			seq.Close()
			return nil, err
		}

		if ok := capture.Read(&img); !ok || img.Empty() {
			break
		}

		if Retained(seq.Decoded, stride) {
			seq.Frames = append(seq.Frames, img.Clone())
		}
		seq.Decoded++
	}

	logger.Info().
		Str("video", info.Name).
		Int("decoded", seq.Decoded).
		Int("retained", seq.Len()).
		Msg("frames loaded")

	return seq, nil
}

// maxPrealloc bounds the up-front frame slice; the header count is untrusted
const maxPrealloc = 1024

// reportedCount converts the container's frame count property, mapping
// values that are negative, non-finite or beyond int32 to 0 (unknown)
func reportedCount(v float64) int {
	if math.IsNaN(v) || v < 0 || v > math.MaxInt32 {
		return 0
	}
	return int(v)
}

func initialCapacity(total, stride int) int {
	return min(ExpectedCount(total, stride), maxPrealloc)
}
