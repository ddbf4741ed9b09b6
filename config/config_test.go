package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/screengrab/capture"
)

func TestDefaults(t *testing.T) {
	v := New()
	c, err := Get(v)
	require.NoError(t, err)

	assert.Equal(t, "", c.Format)
	assert.Equal(t, 30, c.FrameRate)
	assert.Equal(t, "ffmpeg", c.FFmpeg)
	assert.Equal(t, 5*time.Second, c.ProbeTimeout)
	assert.False(t, c.VideoOnly)
	assert.Empty(t, c.DeviceOptions)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SCREENGRAB_FORMAT", "gdigrab")
	t.Setenv("SCREENGRAB_FRAMERATE", "15")
	t.Setenv("SCREENGRAB_PROBE_TIMEOUT", "750ms")
	t.Setenv("SCREENGRAB_VIDEO_ONLY", "true")

	c, err := Get(New())
	require.NoError(t, err)
	assert.Equal(t, "gdigrab", c.Format)
	assert.Equal(t, 15, c.FrameRate)
	assert.Equal(t, 750*time.Millisecond, c.ProbeTimeout)
	assert.True(t, c.VideoOnly)
}

func TestReadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "screengrab.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
format: x11grab
path: ":1"
framerate: 10
ffmpeg: /usr/local/bin/ffmpeg
probe_timeout: 2s
device_options:
  draw_mouse: "0"
  video_size: 1280x720
`), 0o600))

	v := New()
	require.NoError(t, Read(v, file))
	c, err := Get(v)
	require.NoError(t, err)

	assert.Equal(t, "x11grab", c.Format)
	assert.Equal(t, ":1", c.Path)
	assert.Equal(t, 10, c.FrameRate)
	assert.Equal(t, "/usr/local/bin/ffmpeg", c.FFmpeg)
	assert.Equal(t, 2*time.Second, c.ProbeTimeout)
	assert.Equal(t, map[string]string{"draw_mouse": "0", "video_size": "1280x720"}, c.DeviceOptions)
}

func TestReadMissingExplicitFile(t *testing.T) {
	err := Read(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestReadSearchPathWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	assert.NoError(t, Read(New(), ""))
}

func TestGetRejectsNegative(t *testing.T) {
	v := New()
	v.Set(KeyFrameRate, -1)
	_, err := Get(v)
	assert.Error(t, err)

	v = New()
	v.Set(KeyProbeTimeout, "-1s")
	_, err = Get(v)
	assert.Error(t, err)
}

func TestCaptureOptions(t *testing.T) {
	c := &Config{
		Format:        "x11grab",
		Path:          ":0",
		FrameRate:     25,
		FFmpeg:        "ffmpeg7",
		ProbeTimeout:  time.Second,
		VideoOnly:     true,
		DeviceOptions: map[string]string{"draw_mouse": "0"},
	}
	opts := c.CaptureOptions()
	assert.Equal(t, &capture.Options{
		InputFormat:   "x11grab",
		Path:          ":0",
		FrameRate:     25,
		FFmpegPath:    "ffmpeg7",
		ProbeTimeout:  time.Second,
		DeviceOptions: map[string]string{"draw_mouse": "0"},
		StreamPolicy:  capture.FirstVideoStream,
	}, opts)
}
