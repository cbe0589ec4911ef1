package ai

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

// padValue is the gray used for letterbox borders (114/255)
const padValue = float32(114.0 / 255.0)

// letterbox records how a frame was fitted into the square model input
type letterbox struct {
	Scale float64
	PadX  int
	PadY  int
}

// toSource maps a point in model-input space back to source pixels
func (l letterbox) toSource(x, y float64) (float64, float64) {
	return (x - float64(l.PadX)) / l.Scale, (y - float64(l.PadY)) / l.Scale
}

// fitLetterbox computes the scale and centered padding for a w×h frame in a size×size input
func fitLetterbox(w, h, size int) (letterbox, int, int) {
	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw > size {
		nw = size
	}
	if nh > size {
		nh = size
	}
	return letterbox{
		Scale: scale,
		PadX:  (size - nw) / 2,
		PadY:  (size - nh) / 2,
	}, nw, nh
}

// preprocessImage letterboxes img into a float32[1,3,size,size] RGB tensor in [0,1]
func preprocessImage(img image.Image, size int) ([]float32, letterbox) {
	bounds := img.Bounds()
	lb, nw, nh := fitLetterbox(bounds.Dx(), bounds.Dy(), size)

	resized := resize.Resize(uint(nw), uint(nh), img, resize.Bilinear)

	plane := size * size
	data := make([]float32, 3*plane)
	for i := range data {
		data[i] = padValue
	}

	rb := resized.Bounds()
	for y := 0; y < rb.Dy(); y++ {
		for x := 0; x < rb.Dx(); x++ {
			r, g, b, _ := resized.At(rb.Min.X+x, rb.Min.Y+y).RGBA()
			idx := (y+lb.PadY)*size + (x + lb.PadX)
			data[idx] = float32(r>>8) / 255.0
			data[plane+idx] = float32(g>>8) / 255.0
			data[2*plane+idx] = float32(b>>8) / 255.0
		}
	}

	return data, lb
}
