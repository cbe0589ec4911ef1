package ai

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// maxDetections caps boxes kept per frame after NMS
const maxDetections = 300

// anchorCount is the number of YOLOv8 predictions for a square input (strides 8, 16, 32)
func anchorCount(size int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		side := size / stride
		n += side * side
	}
	return n
}

// decodeOutput reads a [1, 4+classes, anchors] YOLOv8 head. Each anchor keeps
// its best class when that score reaches minConf. Boxes stay in input space.
func decodeOutput(data []float32, classes, anchors int, minConf float64) []Detection {
	var out []Detection
	for i := 0; i < anchors; i++ {
		bestClass := -1
		bestScore := float32(0)
		for c := 0; c < classes; c++ {
			score := data[(4+c)*anchors+i]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestClass < 0 || float64(bestScore) < minConf {
			continue
		}

		cx := float64(data[i])
		cy := float64(data[anchors+i])
		w := float64(data[2*anchors+i])
		h := float64(data[3*anchors+i])

		out = append(out, Detection{
			ClassID:    bestClass,
			Confidence: float64(bestScore),
			Box:        Box{X: cx - w/2, Y: cy - h/2, W: w, H: h},
		})
	}
	return out
}

// classOffset shifts each class onto its own region of the plane so a single
// NMSBoxes pass never suppresses across classes
const classOffset = 7680

// nonMaxSuppression keeps the highest-confidence box among same-class boxes
// overlapping by more than threshold, ordered by descending confidence
func nonMaxSuppression(dets []Detection, threshold float64) []Detection {
	if len(dets) == 0 {
		return nil
	}

	rects := make([]image.Rectangle, len(dets))
	scores := make([]float32, len(dets))
	for i, d := range dets {
		off := d.ClassID * classOffset
		rects[i] = image.Rect(
			int(math.Round(d.Box.X))+off,
			int(math.Round(d.Box.Y))+off,
			int(math.Round(d.Box.X+d.Box.W))+off,
			int(math.Round(d.Box.Y+d.Box.H))+off,
		)
		scores[i] = float32(d.Confidence)
	}

	// candidates are already confidence-filtered by decodeOutput
	indices := gocv.NMSBoxes(rects, scores, 0, float32(threshold))
	if len(indices) > maxDetections {
		indices = indices[:maxDetections]
	}

	kept := make([]Detection, 0, len(indices))
	for _, idx := range indices {
		kept = append(kept, dets[idx])
	}
	return kept
}

// toSourceBoxes maps input-space boxes back onto a w×h frame, clipping to its bounds
func toSourceBoxes(dets []Detection, lb letterbox, w, h int) []Detection {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		x1, y1 := lb.toSource(d.Box.X, d.Box.Y)
		x2, y2 := lb.toSource(d.Box.X+d.Box.W, d.Box.Y+d.Box.H)

		x1 = clamp(x1, 0, float64(w))
		x2 = clamp(x2, 0, float64(w))
		y1 = clamp(y1, 0, float64(h))
		y2 = clamp(y2, 0, float64(h))
		if x2 <= x1 || y2 <= y1 {
			continue
		}

		d.Box = Box{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
		out = append(out, d)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
