//go:build linux

package capture

import (
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/kbinani/screenshot"
)

// defaultInputFormat picks the portal on Wayland, where x11grab only sees
// XWayland windows.
func defaultInputFormat() string {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")), "wayland") {
		return "xdg-portal"
	}
	return "x11grab"
}

// displayBounds returns the bounds of every active display on $DISPLAY.
var displayBounds = func() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	bounds := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		bounds = append(bounds, screenshot.GetDisplayBounds(i))
	}
	return bounds
}

// platformOptions points x11grab at the union of the active displays.
func platformOptions(format, path string, o *Options) map[string]string {
	if format != "x11grab" {
		return nil
	}
	if _, ok := o.DeviceOptions["video_size"]; ok {
		return nil
	}
	if path != "" && path != os.Getenv("DISPLAY") {
		// screenshot only talks to $DISPLAY.
		return nil
	}
	desktop, ok := desktopRegion(displayBounds())
	if !ok {
		return nil
	}
	o.Logger.Debug("negotiated x11grab region from active displays",
		"x", desktop.Min.X, "y", desktop.Min.Y, "width", desktop.Dx(), "height", desktop.Dy())
	return map[string]string{
		"video_size": strconv.Itoa(desktop.Dx()) + "x" + strconv.Itoa(desktop.Dy()),
		"grab_x":     strconv.Itoa(desktop.Min.X),
		"grab_y":     strconv.Itoa(desktop.Min.Y),
	}
}

// desktopRegion is the smallest rectangle covering every non-empty display.
func desktopRegion(bounds []image.Rectangle) (image.Rectangle, bool) {
	var desktop image.Rectangle
	for _, b := range bounds {
		if b.Empty() {
			continue
		}
		desktop = desktop.Union(b)
	}
	return desktop, !desktop.Empty()
}
