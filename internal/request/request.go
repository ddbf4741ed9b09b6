// Package request follows org.freedesktop.portal.Request objects, the
// handles through which portal methods deliver their results.
package request

import (
	"context"
	"strings"

	"github.com/dchest/uniuri"
	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"

	"go2tv.app/screengrab/internal/apis"
)

var ErrUnexpectedResponse = errors.New("unexpected response from dbus")

const (
	interfaceName  = "org.freedesktop.portal.Request"
	responseMember = "Response"
	closeCallName  = interfaceName + ".Close"

	tokenPrefix = "screengrab_"
	tokenLen    = 12
)

type ResponseStatus = uint32

const (
	Success   ResponseStatus = 0
	Cancelled ResponseStatus = 1
	Ended     ResponseStatus = 2
)

// StatusText names a response status.
func StatusText(status ResponseStatus) string {
	switch status {
	case Success:
		return "success"
	case Cancelled:
		return "cancelled by user"
	case Ended:
		return "ended"
	default:
		return "unknown status"
	}
}

// Request is a pending portal request. It subscribes to the Response
// signal before the method call is made so the answer cannot be missed.
type Request struct {
	conn    *dbus.Conn
	token   string
	path    dbus.ObjectPath
	signals <-chan *dbus.Signal
	cancel  func()
	done    bool
}

// New prepares a request with a fresh handle token.
func New(conn *dbus.Conn) (*Request, error) {
	names := conn.Names()
	if len(names) == 0 {
		return nil, errors.New("session bus connection has no unique name")
	}
	token := tokenPrefix + uniuri.NewLen(tokenLen)
	path := HandlePath(names[0], token)

	signals, cancel, err := apis.ListenOnSignal(conn, path, interfaceName, responseMember)
	if err != nil {
		return nil, err
	}
	return &Request{
		conn:    conn,
		token:   token,
		path:    path,
		signals: signals,
		cancel:  cancel,
	}, nil
}

// HandlePath is the object path the portal will use for token on the
// connection with the given unique name.
func HandlePath(uniqueName, token string) dbus.ObjectPath {
	sender := strings.ReplaceAll(strings.TrimPrefix(uniqueName, ":"), ".", "_")
	return dbus.ObjectPath(apis.ObjectPath + "/request/" + sender + "/" + token)
}

func (r *Request) Token() string         { return r.token }
func (r *Request) Path() dbus.ObjectPath { return r.path }

// Wait blocks until the portal answers or ctx is done. On cancellation the
// request is closed on the portal side.
func (r *Request) Wait(ctx context.Context) (ResponseStatus, map[string]dbus.Variant, error) {
	for {
		select {
		case sig, ok := <-r.signals:
			if !ok {
				return Ended, nil, errors.New("session bus closed while waiting for portal response")
			}
			if sig.Path != r.path || sig.Name != interfaceName+"."+responseMember {
				continue
			}
			r.done = true
			return parseResponse(sig)
		case <-ctx.Done():
			return Ended, nil, errors.Wrap(ctx.Err(), "waiting for portal response")
		}
	}
}

// Close drops the signal subscription and, if no response arrived, asks
// the portal to abandon the request.
func (r *Request) Close() error {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.done {
		return nil
	}
	r.done = true
	return apis.CallOnObject(context.Background(), r.conn, r.path, closeCallName)
}

func parseResponse(sig *dbus.Signal) (ResponseStatus, map[string]dbus.Variant, error) {
	if len(sig.Body) != 2 {
		return Ended, nil, errors.Wrapf(ErrUnexpectedResponse, "%d body fields", len(sig.Body))
	}
	status, ok := sig.Body[0].(uint32)
	if !ok {
		return Ended, nil, errors.Wrapf(ErrUnexpectedResponse, "status type %T", sig.Body[0])
	}
	results, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return Ended, nil, errors.Wrapf(ErrUnexpectedResponse, "results type %T", sig.Body[1])
	}
	return status, results, nil
}
