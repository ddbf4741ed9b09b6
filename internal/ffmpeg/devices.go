package ffmpeg

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go2tv.app/screengrab/internal/processutil"
)

const deviceListTimeout = 5 * time.Second

// DeviceInfo is one row of `ffmpeg -devices`.
type DeviceInfo struct {
	Name        string
	Demux       bool
	Mux         bool
	Description string
}

var (
	deviceCacheMu sync.Mutex
	deviceCache   = make(map[string]map[string]DeviceInfo)
)

// ListDevices returns the libavdevice formats compiled into program. The
// result is cached per executable for the life of the process.
func ListDevices(ctx context.Context, program string) (map[string]DeviceInfo, error) {
	deviceCacheMu.Lock()
	defer deviceCacheMu.Unlock()

	if devices, ok := deviceCache[program]; ok {
		return devices, nil
	}

	listCtx, cancel := context.WithTimeout(ctx, deviceListTimeout)
	defer cancel()

	cmd := exec.CommandContext(listCtx, program, "-hide_banner", "-devices")
	processutil.HideConsoleWindow(cmd)
	out, err := cmd.Output()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.Wrap(ctxErr, "ffmpeg -devices")
	}
	if listCtx.Err() != nil {
		return nil, errors.Errorf("ffmpeg -devices timeout after %s", deviceListTimeout)
	}
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg -devices failed")
	}

	devices := parseDevices(string(out))
	deviceCache[program] = devices
	return devices, nil
}

func parseDevices(out string) map[string]DeviceInfo {
	devices := make(map[string]DeviceInfo)
	inTable := false
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inTable {
			// The legend ends with a "---" separator.
			if strings.HasPrefix(trimmed, "--") {
				inTable = true
			}
			continue
		}
		// Rows look like " DE x11grab         X11 screen capture, using XCB".
		// Newer builds add a third "d" flag column, which may split the
		// flags into several fields.
		fields := strings.Fields(trimmed)
		flags := ""
		i := 0
		for ; i < len(fields) && strings.Trim(fields[i], "DEd.") == ""; i++ {
			flags += fields[i]
		}
		if flags == "" || i >= len(fields) {
			continue
		}
		info := DeviceInfo{
			Name:  fields[i],
			Demux: strings.Contains(flags, "D"),
			Mux:   strings.Contains(flags, "E"),
		}
		if i+1 < len(fields) {
			info.Description = strings.Join(fields[i+1:], " ")
		}
		// A name may be listed twice (input and output); merge the flags.
		if prev, ok := devices[info.Name]; ok {
			info.Demux = info.Demux || prev.Demux
			info.Mux = info.Mux || prev.Mux
			if info.Description == "" {
				info.Description = prev.Description
			}
		}
		devices[info.Name] = info
	}
	return devices
}
