// Package xdgportal is a screen input format backed by the
// org.freedesktop.portal.Screenshot D-Bus interface. It is the only way to
// see the desktop on Wayland sessions, where x11grab is blind.
package xdgportal

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"

	"go2tv.app/screengrab/internal/apis"
	"go2tv.app/screengrab/internal/convert"
	"go2tv.app/screengrab/internal/debuglog"
	"go2tv.app/screengrab/internal/request"
	"go2tv.app/screengrab/media"
)

const (
	Name = "xdg-portal"

	interfaceName  = apis.CallBaseName + ".Screenshot"
	screenshotName = interfaceName + ".Screenshot"

	// The portal may show a permission dialog on first use.
	responseTimeout = 2 * time.Minute
)

// Format opens one portal screenshot per Open. The request path is the
// parent window identifier ("" for none, or "x11:<xid>", "wayland:<handle>").
type Format struct{}

var Screenshot = &Format{}

func (*Format) Name() string        { return Name }
func (*Format) DefaultPath() string { return "" }

// Version returns the Screenshot interface version exported by the portal.
func Version(ctx context.Context, conn *dbus.Conn) (uint32, error) {
	value, err := apis.GetProperty(ctx, conn, interfaceName, "version")
	if err != nil {
		return 0, err
	}
	return convert.Uint32(value)
}

// Open asks the portal for a screenshot and waits for the resulting file.
// Recognized options are "interactive" and "modal" (boolean strings).
func (f *Format) Open(ctx context.Context, req media.OpenRequest) (media.Source, error) {
	logger := req.Logger
	if logger == nil {
		logger = debuglog.Logger()
	}

	conn, err := apis.SessionBus()
	if err != nil {
		return nil, errors.Wrapf(media.ErrBackendUnavailable, "%v", err)
	}
	version, err := Version(ctx, conn)
	if err != nil {
		return nil, errors.Wrapf(media.ErrBackendUnavailable, "screenshot portal: %v", err)
	}
	logger.Debug("screenshot portal found", "version", version)

	options, err := screenshotOptions(req.Options)
	if err != nil {
		return nil, err
	}

	r, err := request.New(conn)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	options["handle_token"] = convert.FromString(r.Token())

	result, err := apis.Call(ctx, conn, screenshotName, req.Path, options)
	if err != nil {
		return nil, err
	}
	if handle, ok := result.(dbus.ObjectPath); ok && handle != r.Path() {
		// Portals older than 0.9 ignore handle_token.
		logger.Warn("portal request handle differs from the expected one", "want", r.Path(), "got", handle)
	}

	waitCtx, cancel := context.WithTimeout(ctx, responseTimeout)
	defer cancel()
	status, results, err := r.Wait(waitCtx)
	if err != nil {
		return nil, err
	}
	if status != request.Success {
		return nil, errors.Errorf("screenshot request %s", request.StatusText(status))
	}

	uri, err := convert.String(results, "uri")
	if err != nil {
		return nil, err
	}
	path, err := filePath(uri)
	if err != nil {
		return nil, err
	}
	logger.Debug("portal screenshot saved", "path", path)
	src, err := newSource(path, logger)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func screenshotOptions(opts map[string]string) (map[string]dbus.Variant, error) {
	data := map[string]dbus.Variant{}
	for _, key := range []string{"interactive", "modal"} {
		v, ok := opts[key]
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, errors.Wrapf(err, "portal option %s", key)
		}
		data[key] = convert.FromBool(b)
	}
	return data, nil
}
