package ffmpeg

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go2tv.app/screengrab/internal/debuglog"
	"go2tv.app/screengrab/internal/processutil"
	"go2tv.app/screengrab/media"
)

const (
	defaultOpenTimeout = 5 * time.Second
	stderrTailLen      = 300
	exitWaitTimeout    = 1500 * time.Millisecond
)

var ErrNoStreams = errors.New("ffmpeg reported no input streams")

// Source is a running ffmpeg grabber.
type Source struct {
	ctx    context.Context
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *lockedBuffer
	logger *slog.Logger

	mu     sync.Mutex
	parser probeParser

	opened chan struct{}
	probed chan struct{}
	exited chan struct{}

	streams []*media.Stream
	mapped  int
	demux   demuxer
	spare   []byte

	closeOnce sync.Once
	closeErr  error
}

func start(ctx context.Context, program string, args []string, req media.OpenRequest) (*Source, error) {
	logger := req.Logger
	if logger == nil {
		logger = debuglog.Logger()
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultOpenTimeout
	}

	cmd := exec.CommandContext(ctx, program, args...)
	processutil.HideConsoleWindow(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stderr pipe")
	}

	logger.Debug("starting ffmpeg", "program", program, "args", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "ffmpeg start")
	}

	s := &Source{
		ctx:    ctx,
		cmd:    cmd,
		stdout: stdout,
		stderr: &lockedBuffer{},
		logger: logger,
		opened: make(chan struct{}),
		probed: make(chan struct{}),
		exited: make(chan struct{}),
	}
	go s.scanStderr(stderr)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.opened:
		return s, nil
	case <-s.exited:
		_ = s.Close()
		return nil, errors.Errorf("ffmpeg could not open input: %s", s.stderr.Tail(stderrTailLen))
	case <-timer.C:
		_ = s.Close()
		return nil, errors.Errorf("ffmpeg input not open after %s: %s", timeout, s.stderr.Tail(stderrTailLen))
	case <-ctx.Done():
		_ = s.Close()
		return nil, errors.Wrap(ctx.Err(), "ffmpeg open")
	}
}

// scanStderr keeps the child's stderr drained and feeds the probe parser.
func (s *Source) scanStderr(r io.Reader) {
	defer close(s.exited)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	sc.Split(scanLines)
	for sc.Scan() {
		line := sc.Text()
		_, _ = s.stderr.Write([]byte(line + "\n"))

		s.mu.Lock()
		opened, probed := s.parser.feed(line)
		s.mu.Unlock()
		if opened {
			close(s.opened)
		}
		if probed {
			close(s.probed)
		}
	}
}

// scanLines splits on \n and on the bare \r ffmpeg uses for status lines.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Probe waits for ffmpeg to finish describing the input and returns its
// streams.
func (s *Source) Probe(ctx context.Context) ([]*media.Stream, error) {
	select {
	case <-s.probed:
	case <-s.exited:
		// The dump may have completed right before exit.
		select {
		case <-s.probed:
		default:
			return nil, errors.Errorf("ffmpeg exited while probing: %s", s.stderr.Tail(stderrTailLen))
		}
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "ffmpeg probe: %s", s.stderr.Tail(stderrTailLen))
	}

	s.mu.Lock()
	streams := s.parser.streams
	s.mu.Unlock()
	if len(streams) == 0 {
		return nil, ErrNoStreams
	}

	s.streams = make([]*media.Stream, len(streams))
	for i, st := range streams {
		cp := *st
		s.streams[i] = &cp
	}
	// Only the first video stream is mapped to stdout.
	mapped := s.streams[0]
	for _, st := range s.streams {
		if st.Type == media.TypeVideo {
			mapped = st
			break
		}
	}
	demux, err := newDemuxer(mapped)
	if err != nil {
		s.logger.Debug("ffmpeg stream has no demuxer", "codec", mapped.Codec, "err", err)
	}
	s.mapped = mapped.Index
	s.demux = demux

	for _, st := range s.streams {
		s.logger.Debug("ffmpeg stream",
			"index", st.Index,
			"type", st.Type,
			"codec", st.Codec,
			"pix_fmt", st.PixelFormat,
			"width", st.Width,
			"height", st.Height,
			"fps", st.FrameRate,
		)
	}
	return s.streams, nil
}

// ReadPacket returns the next packet of the first video stream.
func (s *Source) ReadPacket() (*media.Packet, error) {
	if s.streams == nil {
		return nil, errors.New("ffmpeg: ReadPacket before Probe")
	}
	if s.demux == nil {
		return nil, errors.Wrapf(ErrNoDemuxer, "stream %d", s.mapped)
	}

	data, err := s.demux.next(s.stdout, s.spare)
	if err != nil {
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(ctxErr, "ffmpeg read")
		}
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrapf(err, "ffmpeg read: %s", s.stderr.Tail(stderrTailLen))
	}
	s.spare = nil
	return media.NewPacket(s.mapped, data, func() {
		s.spare = data[:0]
	}), nil
}

// Close stops ffmpeg and reaps it.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.cmd.Process != nil {
			if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				errs = append(errs, err)
			}
		}
		if err := s.stdout.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}

		// Wait must not run before stderr is fully read.
		select {
		case <-s.exited:
			// The exit status of a killed grabber carries no information.
			_ = s.cmd.Wait()
		case <-time.After(exitWaitTimeout):
			errs = append(errs, errors.New("ffmpeg did not exit after kill"))
		}
		s.closeErr = joinErrors(errs)
		s.logger.Debug("ffmpeg closed", "err", s.closeErr)
	})
	return s.closeErr
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	msgs := make([]string, 0, len(errs)-1)
	for _, err := range errs[1:] {
		msgs = append(msgs, err.Error())
	}
	return errors.Wrap(errs[0], strings.Join(msgs, "; "))
}
