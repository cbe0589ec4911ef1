package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewLogger(&buf), "frames")

	logger.Info().Int("retained", 3).Msg("frames loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "frames", entry["component"])
	assert.Equal(t, "frames loaded", entry["message"])
	assert.EqualValues(t, 3, entry["retained"])
}

func TestNewLoggerMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewLogger(&a, &b)

	logger.Info().Msg("hello")

	assert.Contains(t, a.String(), "hello")
	assert.Contains(t, b.String(), "hello")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsole(&buf)

	logger.Info().Str("video", "SampleVideo1.mp4").Msg("processing")

	assert.Contains(t, buf.String(), "processing")
	assert.Contains(t, buf.String(), "SampleVideo1.mp4")
}

func TestInitWithSink(t *testing.T) {
	var sink bytes.Buffer
	logger := Init(false, &sink)

	logger.Info().Str("video", "SampleVideo1.mp4").Msg("batch complete")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(sink.Bytes(), &entry))
	assert.Equal(t, "batch complete", entry["message"])
	assert.Equal(t, "SampleVideo1.mp4", entry["video"])
}
