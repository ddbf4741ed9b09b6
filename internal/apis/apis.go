// Package apis holds the low-level D-Bus calls shared by the desktop portal
// packages.
package apis

import (
	"context"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

const (
	ObjectName        = "org.freedesktop.portal.Desktop"
	ObjectPath        = "/org/freedesktop/portal/desktop"
	CallBaseName      = "org.freedesktop.portal"
	PropertiesGetName = "org.freedesktop.DBus.Properties.Get"
)

var ErrNoSessionBus = errors.New("no D-Bus session bus")

// SessionBus returns the shared session bus connection. Callers must not
// close it.
func SessionBus() (*dbus.Conn, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, errors.Wrapf(ErrNoSessionBus, "%v", err)
	}
	return conn, nil
}

// Call invokes method on the portal object and returns its single result.
func Call(ctx context.Context, conn *dbus.Conn, method string, args ...any) (any, error) {
	call := conn.Object(ObjectName, ObjectPath).CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		return nil, errors.Wrap(call.Err, method)
	}

	var result any
	if err := call.Store(&result); err != nil {
		return nil, errors.Wrap(err, method)
	}
	return result, nil
}

// CallOnObject invokes method on a portal object other than the root one,
// such as a pending request.
func CallOnObject(ctx context.Context, conn *dbus.Conn, path dbus.ObjectPath, method string, args ...any) error {
	call := conn.Object(ObjectName, path).CallWithContext(ctx, method, 0, args...)
	return errors.Wrap(call.Err, method)
}

// GetProperty reads property of interfaceName on the portal object.
func GetProperty(ctx context.Context, conn *dbus.Conn, interfaceName, property string) (any, error) {
	call := conn.Object(ObjectName, ObjectPath).CallWithContext(ctx, PropertiesGetName, 0, interfaceName, property)
	if call.Err != nil {
		return nil, errors.Wrapf(call.Err, "get %s.%s", interfaceName, property)
	}

	var value dbus.Variant
	if err := call.Store(&value); err != nil {
		return nil, errors.Wrapf(err, "get %s.%s", interfaceName, property)
	}
	return value.Value(), nil
}

// ListenOnSignal subscribes to member of iface emitted by path. The
// returned cancel func removes the match rule and the channel.
func ListenOnSignal(conn *dbus.Conn, path dbus.ObjectPath, iface, member string) (<-chan *dbus.Signal, func(), error) {
	if path == "" {
		path = ObjectPath
	}
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(iface),
		dbus.WithMatchMember(member),
	}
	if err := conn.AddMatchSignal(opts...); err != nil {
		return nil, nil, errors.Wrapf(err, "match %s.%s", iface, member)
	}

	// The shared connection fans every signal out to all channels, so keep
	// some slack to avoid stalling its dispatcher.
	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)
	cancel := func() {
		conn.RemoveSignal(signals)
		_ = conn.RemoveMatchSignal(opts...)
	}
	return signals, cancel, nil
}
