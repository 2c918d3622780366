// Package session drives one command/response exchange at a time over a
// byte transport: write the command, then poll for bytes until the reader
// answers with ACK/NACK or the timeout expires.
package session

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"utrinv/pkg/command"
	"utrinv/pkg/frame"
)

const (
	DefaultTimeout = time.Second
	DefaultIdle    = 2 * time.Millisecond
	readChunk      = 256
)

// Transport is the byte link to the reader. Read must not block longer than
// a short poll interval and may return 0 bytes with a nil error; the
// session's own deadline bounds the exchange.
type Transport interface {
	io.Reader
	io.Writer
}

// Clock is a monotonic time source.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

// time.Now carries a monotonic reading, so Sub and Before are immune to
// wall-clock steps.
func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Recorder receives every transmitted command and received frame.
type Recorder interface {
	Record(ts time.Time, dir frame.Direction, data []byte) error
}

// Options configures a Session. Zero values select defaults.
type Options struct {
	Address  byte
	Timeout  time.Duration
	Idle     time.Duration // pause after a read returns no bytes; negative disables
	Clock    Clock
	Logger   *zerolog.Logger
	Recorder Recorder
}

// Session serializes exchanges with one reader. It is not safe for
// concurrent use; the protocol is half-duplex.
type Session struct {
	t    Transport
	opts Options
	log  zerolog.Logger
}

// New returns a Session over t.
func New(t Transport, opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	switch {
	case opts.Idle == 0:
		opts.Idle = DefaultIdle
	case opts.Idle < 0:
		opts.Idle = 0
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	l := zerolog.Nop()
	if opts.Logger != nil {
		l = *opts.Logger
	}
	return &Session{
		t:    t,
		opts: opts,
		log:  l.With().Str("component", "session").Logger(),
	}
}

// Response is everything received for one command.
type Response struct {
	Frames   []frame.Frame
	TimedOut bool
	Dropped  int // noise bytes discarded while resynchronizing
	Elapsed  time.Duration
}

// Terminal returns the closing ACK/NACK frame, if one arrived.
func (r Response) Terminal() (frame.Frame, bool) {
	if len(r.Frames) == 0 {
		return frame.Frame{}, false
	}
	last := r.Frames[len(r.Frames)-1]
	return last, last.IsTerminal()
}

// Do sends a named command to the configured reader address using the
// default timeout.
func (s *Session) Do(c command.Command) (Response, error) {
	s.log.Debug().Str("command", c.Name).Msg("send")
	return s.SendAndReceive(c.Bytes(s.opts.Address), s.opts.Timeout)
}

// SendAndReceive writes cmd and collects validated frames until a terminal
// ACK/NACK frame arrives or timeout elapses. Expiry is not an error: the
// frames seen so far are returned with TimedOut set. An error is returned
// only when the transport fails, together with any frames already decoded.
func (s *Session) SendAndReceive(cmd []byte, timeout time.Duration) (Response, error) {
	clock := s.opts.Clock
	start := clock.Now()
	deadline := start.Add(timeout)

	if _, err := s.t.Write(cmd); err != nil {
		return Response{}, fmt.Errorf("session: write: %w", err)
	}
	s.record(start, frame.DirTX, cmd)

	r := frame.NewReassembler()
	buf := make([]byte, readChunk)
	var res Response
	var readErr error

	for !r.Done() {
		now := clock.Now()
		if !now.Before(deadline) {
			res.TimedOut = true
			break
		}
		n, err := s.t.Read(buf)
		if n > 0 {
			r.Feed(buf[:n])
			for _, f := range r.Advance() {
				s.record(clock.Now(), frame.DirRX, f.Bytes())
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			readErr = fmt.Errorf("session: read: %w", err)
			break
		}
		if n == 0 && s.opts.Idle > 0 {
			clock.Sleep(s.opts.Idle)
		}
	}

	res.Frames = r.Frames()
	res.Dropped = r.Dropped()
	res.Elapsed = clock.Now().Sub(start)

	lvl := zerolog.DebugLevel
	if res.TimedOut {
		lvl = zerolog.WarnLevel
	}
	s.log.WithLevel(lvl).
		Int("frames", len(res.Frames)).
		Int("dropped", res.Dropped).
		Int("pending", r.Pending()).
		Bool("timed_out", res.TimedOut).
		Dur("elapsed", res.Elapsed).
		Msg("exchange done")

	return res, readErr
}

func (s *Session) record(ts time.Time, dir frame.Direction, data []byte) {
	if s.opts.Recorder == nil {
		return
	}
	if err := s.opts.Recorder.Record(ts, dir, data); err != nil {
		s.log.Warn().Err(err).Msg("record frame")
	}
}
