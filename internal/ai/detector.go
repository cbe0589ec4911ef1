package ai

import (
	"context"

	"gocv.io/x/gocv"
)

// PersonClassID is the detector class reserved for people
const PersonClassID = 0

// Category is the coarse class of a detection
type Category int

const (
	CategoryPerson Category = iota
	CategoryObject
)

func (c Category) String() string {
	switch c {
	case CategoryPerson:
		return "person"
	case CategoryObject:
		return "object"
	default:
		return "unknown"
	}
}

// Classify maps a detector class id onto a Category
func Classify(classID int) Category {
	if classID == PersonClassID {
		return CategoryPerson
	}
	return CategoryObject
}

// Box is an axis-aligned bounding box in source-frame pixels
type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

// Detection is one bounding box emitted by a Detector
type Detection struct {
	ClassID    int
	Confidence float64
	Box        Box
}

// Category returns the detection's coarse class
func (d Detection) Category() Category {
	return Classify(d.ClassID)
}

// Detector runs object detection on single frames
type Detector interface {
	Detect(ctx context.Context, frame gocv.Mat) ([]Detection, error)
	Close() error
}

// DetectorFactory loads a Detector. The pipeline calls it once per video.
type DetectorFactory func() (Detector, error)
