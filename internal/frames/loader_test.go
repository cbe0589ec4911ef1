package frames

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"pgregory.net/rapid"
)

// writeClip encodes n solid frames as MJPEG/AVI, skipping when the backend has no writer
func writeClip(t *testing.T, path string, n int) {
	t.Helper()

	writer, err := gocv.VideoWriterFile(path, "MJPG", 10, 64, 48, true)
	if err != nil || !writer.IsOpened() {
		if writer != nil {
			writer.Close()
		}
		t.Skipf("no MJPG video writer available: %v", err)
	}
	defer writer.Close()

	for i := 0; i < n; i++ {
		shade := float64((i * 25) % 256)
		frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(shade, shade, shade, 0), 48, 64, gocv.MatTypeCV8UC3)
		require.NoError(t, writer.Write(frame))
		frame.Close()
	}
}

func TestRetainedMatchesExpectedCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 500).Draw(t, "n")
		k := rapid.IntRange(1, 40).Draw(t, "k")

		kept := 0
		for i := 0; i < n; i++ {
			if Retained(i, k) {
				if i%k != 0 {
					t.Fatalf("index %d retained at stride %d", i, k)
				}
				kept++
			}
		}
		if kept != ExpectedCount(n, k) {
			t.Fatalf("n=%d k=%d: kept %d, ExpectedCount %d", n, k, kept, ExpectedCount(n, k))
		}
	})
}

func TestExpectedCount(t *testing.T) {
	assert.Equal(t, 0, ExpectedCount(0, 5))
	assert.Equal(t, 1, ExpectedCount(1, 5))
	assert.Equal(t, 1, ExpectedCount(5, 5))
	assert.Equal(t, 2, ExpectedCount(6, 5))
	assert.Equal(t, 10, ExpectedCount(10, 1))
}

func TestReportedCount(t *testing.T) {
	assert.Equal(t, 150, reportedCount(150))
	assert.Equal(t, 0, reportedCount(-1))
	assert.Equal(t, 0, reportedCount(math.NaN()))
	assert.Equal(t, 0, reportedCount(math.Inf(1)))
	assert.Equal(t, 0, reportedCount(1e19))
	assert.Equal(t, 2_000_000_000, reportedCount(2e9))
}

func TestInitialCapacityIsBounded(t *testing.T) {
	// a header claiming 2e9 frames must not size the buffer
	assert.Equal(t, maxPrealloc, initialCapacity(reportedCount(2e9), DefaultStride))
	assert.Equal(t, 30, initialCapacity(150, DefaultStride))
	assert.Equal(t, 0, initialCapacity(0, DefaultStride))

	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, math.MaxInt32).Draw(t, "total")
		stride := rapid.IntRange(1, 100).Draw(t, "stride")
		c := initialCapacity(total, stride)
		if c < 0 || c > maxPrealloc || c > ExpectedCount(total, stride) {
			t.Fatalf("initialCapacity(%d, %d) = %d", total, stride, c)
		}
	})
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "not_found", Kind(fmt.Errorf("%w: a.mp4", ErrNotFound)))
	assert.Equal(t, "unopenable", Kind(fmt.Errorf("load: %w", ErrUnopenable)))
	assert.Equal(t, "unexpected", Kind(errors.New("model exploded")))
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(context.Background(), zerolog.Nop(), filepath.Join(t.TempDir(), "missing.mp4"), DefaultStride)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadUnopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SampleVideo_corrupt.mp4")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a video container"), 0644))

	_, err := Load(context.Background(), zerolog.Nop(), path, DefaultStride)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnopenable)
}

func TestLoadRejectsBadStride(t *testing.T) {
	_, err := Load(context.Background(), zerolog.Nop(), "whatever.mp4", 0)
	assert.ErrorContains(t, err, "stride")
}

func TestLoadStride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")
	writeClip(t, path, 23)

	for _, stride := range []int{1, 5, 7} {
		t.Run(fmt.Sprintf("stride_%d", stride), func(t *testing.T) {
			seq, err := Load(context.Background(), zerolog.Nop(), path, stride)
			require.NoError(t, err)
			defer seq.Close()

			assert.Equal(t, 23, seq.Decoded)
			assert.Equal(t, ExpectedCount(23, stride), seq.Len())
			assert.Equal(t, 64, seq.Info.Width)
			assert.Equal(t, 48, seq.Info.Height)
			assert.Equal(t, "clip.avi", seq.Info.Name)
			for _, f := range seq.Frames {
				assert.Equal(t, 3, f.Channels())
			}
		})
	}
}

func TestLoadCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")
	writeClip(t, path, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq, err := Load(ctx, zerolog.Nop(), path, 1)
	assert.Nil(t, seq)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSequenceCloseNil(t *testing.T) {
	var seq *Sequence
	assert.NoError(t, seq.Close())
	assert.Equal(t, 0, seq.Len())
}

func TestMetadataString(t *testing.T) {
	m := Metadata{Name: "SampleVideo1.mp4", TotalFrames: 300, FPS: 29.97, Width: 1280, Height: 720}
	assert.Equal(t, "SampleVideo1.mp4: 300 frames | 30.0 fps | 1280x720", m.String())
}
