package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"go2tv.app/screengrab/capture"
	"go2tv.app/screengrab/config"
	"go2tv.app/screengrab/media"
)

func newStreamsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "streams",
		Short: "Open the screen source and list its streams without decoding",
		Example: `  screengrab streams
  screengrab streams --format x11grab --device-option video_size=1280x720`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get(root.v)
			if err != nil {
				return reportError(cmd, err)
			}
			return reportError(cmd, runStreams(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr()))
		},
	}
}

func runStreams(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	opts := cfg.CaptureOptions()
	opts.Logger = newLogger(cfg, stderr)

	src, err := capture.OpenSource(ctx, opts)
	if err != nil {
		return err
	}
	defer src.Close()

	fmt.Fprintf(stdout, "%s %s\n", color.New(color.FgCyan).Sprint(src.Format), src.Path)
	if len(src.Options) > 0 {
		fmt.Fprintf(stdout, "options: %s\n", formatOptions(src.Options))
	}
	renderStreams(stdout, src.Streams)
	return nil
}

func renderStreams(w io.Writer, streams []*media.Stream) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Index", "Type", "Codec", "Pixel Format", "Size", "FPS"})
	for _, st := range streams {
		size := "-"
		if st.Width > 0 && st.Height > 0 {
			size = fmt.Sprintf("%dx%d", st.Width, st.Height)
		}
		fps := "-"
		if st.FrameRate > 0 {
			fps = fmt.Sprintf("%g", st.FrameRate)
		}
		pixfmt := st.PixelFormat
		if pixfmt == "" {
			pixfmt = "-"
		}
		t.AppendRow(table.Row{st.Index, st.Type, st.Codec, pixfmt, size, fps})
	}
	t.Render()
}

func formatOptions(options map[string]string) string {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+options[k])
	}
	return strings.Join(parts, " ")
}
