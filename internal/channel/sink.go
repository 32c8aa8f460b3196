package channel

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/tidwall/sjson"

	"github.com/dshills/anaclient/internal/protocol"
)

// RequestSink is the outbound half of a connection.
type RequestSink interface {
	// Add transmits a request. After Close it drops the request and returns nil.
	Add(req protocol.Request) error

	// Close stops accepting requests. It is safe to call more than once.
	Close() error

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}

// LineSink writes each request as a single JSON line.
type LineSink struct {
	w      io.Writer
	closer io.Closer
	log    logr.Logger

	stampRequestTime bool
	now              func() time.Time

	// mu serializes writes and guards closed
	mu     sync.Mutex
	closed bool
}

// LineSinkOption configures a LineSink.
type LineSinkOption func(*LineSink)

// WithRequestTime stamps each request with clientRequestTime in milliseconds
// since the epoch.
func WithRequestTime(enabled bool) LineSinkOption {
	return func(s *LineSink) {
		s.stampRequestTime = enabled
	}
}

// WithSinkLogger sets the logger.
func WithSinkLogger(log logr.Logger) LineSinkOption {
	return func(s *LineSink) {
		s.log = log
	}
}

// withClock replaces the time source. Used by tests.
func withClock(now func() time.Time) LineSinkOption {
	return func(s *LineSink) {
		s.now = now
	}
}

// NewLineSink creates a sink writing to w. If closer is non-nil it is closed
// together with the sink.
func NewLineSink(w io.Writer, closer io.Closer, opts ...LineSinkOption) *LineSink {
	s := &LineSink{
		w:      w,
		closer: closer,
		log:    logr.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add encodes req and writes it followed by a newline.
func (s *LineSink) Add(req protocol.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.log.V(1).Info("Dropping request on closed sink", "id", req.ID, "method", req.Method)
		return nil
	}

	data, err := protocol.EncodeRequest(req)
	if err != nil {
		return err
	}
	if s.stampRequestTime {
		data, err = sjson.SetBytes(data, "clientRequestTime", s.now().UnixMilli())
		if err != nil {
			return fmt.Errorf("stamping request %s: %w", req.ID, err)
		}
	}
	data = append(data, '\n')

	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("writing request %s: %w", req.ID, err)
	}
	return nil
}

// Close marks the sink closed and closes the underlying writer.
func (s *LineSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// IsClosed reports whether Close has been called.
func (s *LineSink) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// MemorySink records requests instead of sending them.
type MemorySink struct {
	mu       sync.Mutex
	requests []protocol.Request
	closed   bool
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Add records req unless the sink is closed.
func (s *MemorySink) Add(req protocol.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.requests = append(s.requests, req)
	}
	return nil
}

// Close marks the sink closed.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (s *MemorySink) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Requests returns a copy of the recorded requests in the order they were
// added.
func (s *MemorySink) Requests() []protocol.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Last returns the most recently recorded request.
func (s *MemorySink) Last() (protocol.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return protocol.Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}
