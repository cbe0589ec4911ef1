package ffmpeg

import (
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
)

// Executor runs ffprobe against media files
type Executor struct {
	logger      zerolog.Logger
	ffprobePath string
}

// New locates ffprobe in PATH and returns an executor bound to it
func New(logger zerolog.Logger) (*Executor, error) {
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffprobePath: ffprobePath,
	}, nil
}

// Path returns the resolved ffprobe binary
func (e *Executor) Path() string {
	return e.ffprobePath
}
