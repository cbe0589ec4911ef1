package frames

import (
	"fmt"

	"gocv.io/x/gocv"
)

// DefaultStride keeps every fifth decoded frame
const DefaultStride = 5

// Metadata is what the container reports before decoding
type Metadata struct {
	Name        string
	TotalFrames int
	FPS         float64
	Width       int
	Height      int
}

func (m Metadata) String() string {
	return fmt.Sprintf("%s: %d frames | %.1f fps | %dx%d", m.Name, m.TotalFrames, m.FPS, m.Width, m.Height)
}

// Sequence is an ordered set of BGR frames sampled at a fixed stride.
// It owns its Mats; call Close once the analyzers are done.
type Sequence struct {
	Frames  []gocv.Mat
	Stride  int
	Decoded int
	Info    Metadata
}

// Len returns the number of retained frames
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Frames)
}

// Close releases every frame
func (s *Sequence) Close() error {
	if s == nil {
		return nil
	}
	var firstErr error
	for i := range s.Frames {
		if err := s.Frames[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.Frames = nil
	return firstErr
}

// Retained reports whether the frame at a zero-based decode index is kept
func Retained(index, stride int) bool {
	return index%stride == 0
}

// ExpectedCount is the number of frames kept from n decoded frames at stride k
func ExpectedCount(n, k int) int {
	if n <= 0 {
		return 0
	}
	return (n + k - 1) / k
}
