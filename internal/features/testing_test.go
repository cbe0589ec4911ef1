package features

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

// solidFrames builds BGR frames of size 64x48 filled with the given gray levels
func solidFrames(t *testing.T, shades ...float64) []gocv.Mat {
	t.Helper()

	frames := make([]gocv.Mat, len(shades))
	for i, s := range shades {
		frames[i] = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(s, s, s, 0), 48, 64, gocv.MatTypeCV8UC3)
	}
	t.Cleanup(func() { closeAll(frames) })
	return frames
}

// texturedFrames returns n copies of one deterministic smoothed-noise frame
func texturedFrames(t *testing.T, n int) []gocv.Mat {
	t.Helper()

	base := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer base.Close()
	gocv.SetRNGSeed(7)
	gocv.RandU(&base, gocv.NewScalar(0, 0, 0, 0), gocv.NewScalar(255, 255, 255, 0))
	gocv.GaussianBlur(base, &base, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	frames := make([]gocv.Mat, n)
	for i := range frames {
		frames[i] = base.Clone()
	}
	t.Cleanup(func() { closeAll(frames) })
	return frames
}

func closeAll(frames []gocv.Mat) {
	for i := range frames {
		frames[i].Close()
	}
}
