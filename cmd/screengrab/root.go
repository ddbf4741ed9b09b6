package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go2tv.app/screengrab/capture"
	"go2tv.app/screengrab/config"
	"go2tv.app/screengrab/internal/debuglog"
)

type rootOptions struct {
	configFile string
	v          *viper.Viper
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:   "screengrab",
		Short: "Capture one frame of the desktop as raw RGB24",
		Long: `screengrab opens the platform screen grabber, decodes a single frame and
reports its geometry. With --output the packed RGB24 bytes (3 bytes per
pixel, rows top to bottom, no header) are written to a file, or to stdout
with "-o -".`,
		Example: `  screengrab
  screengrab --format x11grab --path :1 -o frame.rgb
  screengrab --format gdigrab --framerate 10 -o - | ffplay -f rawvideo -pixel_format rgb24 -video_size 1920x1080 -`,
		Args:          cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Read(opts.v, opts.configFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get(opts.v)
			if err != nil {
				return reportError(cmd, err)
			}
			return reportError(cmd, runCapture(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Config file (default: config.yaml in ., $XDG_CONFIG_HOME/screengrab, /etc/screengrab)")
	flags.String("format", "", "Input format (gdigrab, x11grab, avfoundation, fbdev, xdg-portal); empty picks the platform default")
	flags.String("path", "", "Device path; empty picks the format default")
	flags.Int("framerate", 30, "Frame rate negotiated with the device")
	flags.String("ffmpeg", "ffmpeg", "ffmpeg executable")
	flags.Duration("probe-timeout", 5*time.Second, "Bound on device open and stream probing")
	flags.Bool("video-only", false, "Decode the first video stream instead of stream 0")
	flags.StringToString("device-option", nil, "Extra device option as key=value (repeatable)")
	flags.BoolP("verbose", "V", false, "Log pipeline progress to stderr")
	cmd.Flags().StringP("output", "o", "", `Write the RGB24 bytes to this file ("-" for stdout)`)

	bindFlag(opts.v, config.KeyFormat, flags.Lookup("format"))
	bindFlag(opts.v, config.KeyPath, flags.Lookup("path"))
	bindFlag(opts.v, config.KeyFrameRate, flags.Lookup("framerate"))
	bindFlag(opts.v, config.KeyFFmpeg, flags.Lookup("ffmpeg"))
	bindFlag(opts.v, config.KeyProbeTimeout, flags.Lookup("probe-timeout"))
	bindFlag(opts.v, config.KeyVideoOnly, flags.Lookup("video-only"))
	bindFlag(opts.v, config.KeyDeviceOptions, flags.Lookup("device-option"))
	bindFlag(opts.v, config.KeyVerbose, flags.Lookup("verbose"))
	bindFlag(opts.v, config.KeyOutput, cmd.Flags().Lookup("output"))

	must("complete flag format", cmd.RegisterFlagCompletionFunc("format", completeFormats))

	cmd.AddCommand(newStreamsCommand(opts))
	return cmd
}

func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return capture.InputFormats(), cobra.ShellCompDirectiveNoFileComp
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	must("bind flag "+key, v.BindPFlag(key, flag))
}

// must panics on setup errors, which are programming mistakes.
func must(what string, err error) {
	if err != nil {
		panic(fmt.Sprintf("%s: %v", what, err))
	}
}

func newLogger(cfg *config.Config, stderr io.Writer) *slog.Logger {
	if cfg.Verbose {
		return debuglog.New(stderr, slog.LevelDebug)
	}
	return debuglog.Logger()
}

func runCapture(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	opts := cfg.CaptureOptions()
	opts.Logger = newLogger(cfg, stderr)

	img, err := capture.Screenshot(ctx, opts)
	if err != nil {
		return err
	}

	if cfg.Output != "" {
		if err := writeOutput(cfg.Output, img.Pix, stdout); err != nil {
			return err
		}
	}
	color.New(color.FgGreen).Fprintf(stderr, "captured %dx%d RGB24, %d bytes\n", img.Width, img.Height, len(img.Pix))
	return nil
}

func writeOutput(path string, pix []byte, stdout io.Writer) error {
	if path == "-" {
		_, err := stdout.Write(pix)
		return errors.Wrap(err, "write stdout")
	}
	return errors.Wrapf(os.WriteFile(path, pix, 0o644), "write %s", path)
}

// reportError adds a status line for capture failures. cobra prints the
// error itself.
func reportError(cmd *cobra.Command, err error) error {
	if kind, ok := capture.KindOf(err); ok {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "no frame captured (%s)\n", kind)
	}
	return err
}
