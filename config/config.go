// Package config loads the screengrab CLI settings from defaults, an
// optional config.yaml, SCREENGRAB_* environment variables and flags.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"go2tv.app/screengrab/capture"
)

const (
	KeyFormat        = "format"
	KeyPath          = "path"
	KeyFrameRate     = "framerate"
	KeyFFmpeg        = "ffmpeg"
	KeyProbeTimeout  = "probe_timeout"
	KeyVideoOnly     = "video_only"
	KeyDeviceOptions = "device_options"
	KeyOutput        = "output"
	KeyVerbose       = "verbose"

	envPrefix = "SCREENGRAB"
)

// Config is the resolved CLI configuration.
type Config struct {
	Format        string
	Path          string
	FrameRate     int
	FFmpeg        string
	ProbeTimeout  time.Duration
	VideoOnly     bool
	DeviceOptions map[string]string
	Output        string
	Verbose       bool
}

// New returns a viper instance with defaults, environment binding and the
// config search path set up. Nothing is read yet.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyFormat, "")
	v.SetDefault(KeyPath, "")
	v.SetDefault(KeyFrameRate, 30)
	v.SetDefault(KeyFFmpeg, "ffmpeg")
	v.SetDefault(KeyProbeTimeout, 5*time.Second)
	v.SetDefault(KeyVideoOnly, false)
	v.SetDefault(KeyDeviceOptions, map[string]string{})
	v.SetDefault(KeyOutput, "")
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range SearchPaths() {
		v.AddConfigPath(path)
	}
	return v
}

// SearchPaths lists the directories searched for config.yaml, in order.
func SearchPaths() []string {
	return []string{
		".",
		filepath.Join(xdg.ConfigHome, "screengrab"),
		"/etc/screengrab",
	}
}

// Read loads file, or the first config.yaml on the search path when file
// is empty. A missing config.yaml on the search path is not an error.
func Read(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "read config")
	}
	return nil
}

// Get resolves the configuration held by v.
func Get(v *viper.Viper) (*Config, error) {
	c := &Config{
		Format:        strings.TrimSpace(v.GetString(KeyFormat)),
		Path:          v.GetString(KeyPath),
		FrameRate:     v.GetInt(KeyFrameRate),
		FFmpeg:        v.GetString(KeyFFmpeg),
		ProbeTimeout:  v.GetDuration(KeyProbeTimeout),
		VideoOnly:     v.GetBool(KeyVideoOnly),
		DeviceOptions: v.GetStringMapString(KeyDeviceOptions),
		Output:        v.GetString(KeyOutput),
		Verbose:       v.GetBool(KeyVerbose),
	}
	if c.FrameRate < 0 {
		return nil, errors.Errorf("%s must not be negative, got %d", KeyFrameRate, c.FrameRate)
	}
	if c.ProbeTimeout < 0 {
		return nil, errors.Errorf("%s must not be negative, got %s", KeyProbeTimeout, c.ProbeTimeout)
	}
	return c, nil
}

// CaptureOptions maps the configuration onto capture options.
func (c *Config) CaptureOptions() *capture.Options {
	opts := &capture.Options{
		InputFormat:   c.Format,
		Path:          c.Path,
		FrameRate:     c.FrameRate,
		FFmpegPath:    c.FFmpeg,
		ProbeTimeout:  c.ProbeTimeout,
		DeviceOptions: c.DeviceOptions,
	}
	if c.VideoOnly {
		opts.StreamPolicy = capture.FirstVideoStream
	}
	return opts
}
