package features

import (
	"errors"

	"gocv.io/x/gocv"
)

var errEmptyFrame = errors.New("empty frame")

// toGray writes the single-channel intensity image of frame into dst
func toGray(frame gocv.Mat, dst *gocv.Mat) error {
	if frame.Empty() {
		return errEmptyFrame
	}

	switch frame.Channels() {
	case 1:
		frame.CopyTo(dst)
	case 4:
		gocv.CvtColor(frame, dst, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(frame, dst, gocv.ColorBGRToGray)
	}
	return nil
}
