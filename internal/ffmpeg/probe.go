package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/keagan/vidfeatures/pkg/util"
)

// probeArgs asks ffprobe for container and stream metadata as JSON; only
// real errors reach stderr
var probeArgs = []string{"-v", "error", "-print_format", "json", "-show_format", "-show_streams"}

// ProbeVideo runs ffprobe on filePath and returns its first video stream's metadata
func (e *Executor) ProbeVideo(ctx context.Context, filePath string) (*VideoInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := append(slices.Clone(probeArgs), filePath)
	e.logger.Debug().Str("video", filepath.Base(filePath)).Strs("args", args).Msg("probing container")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, probeFailure(filePath, err, stderr.Bytes())
	}

	return parseProbe(filePath, output)
}

// probeFailure wraps a failed ffprobe run with the last line ffprobe printed
func probeFailure(filePath string, err error, stderr []byte) error {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return fmt.Errorf("ffprobe %s: %w: %s", filepath.Base(filePath), err, last)
	}
	return fmt.Errorf("ffprobe %s: %w", filepath.Base(filePath), err)
}

// parseProbe converts ffprobe JSON into VideoInfo. The first video stream wins.
func parseProbe(filePath string, output []byte) (*VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &VideoInfo{
		FilePath:  filePath,
		Container: probe.Format.FormatName,
	}

	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(dur * float64(time.Second))
	}

	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.Bitrate = br
	}

	hasVideo := false
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if hasVideo {
				continue
			}
			hasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			info.FrameCount = util.ParseFrameCount(stream.NbFrames)

			// r_frame_rate looks like "30/1"
			if stream.RFrameRate != "" {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}
		case "audio":
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			if br, err := strconv.ParseInt(stream.BitRate, 10, 64); err == nil {
				info.AudioBitrate = br
			}
		}
	}

	if !hasVideo {
		return nil, fmt.Errorf("no video stream in %s", filePath)
	}

	return info, nil
}
