package channel

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/go-logr/logr"

	"github.com/dshills/anaclient/internal/protocol"
)

// LineStream is a ResponseStream fed by newline-delimited JSON read from an
// io.Reader on its own goroutine. The stream finishes when the reader hits EOF
// or fails.
type LineStream struct {
	*Queue

	log    logr.Logger
	closed chan struct{}
}

// LineStreamOption configures a LineStream.
type LineStreamOption func(*LineStream)

// WithStreamLogger sets the logger.
func WithStreamLogger(log logr.Logger) LineStreamOption {
	return func(s *LineStream) {
		s.log = log
	}
}

// NewLineStream starts reading r in the background.
func NewLineStream(r io.Reader, opts ...LineStreamOption) *LineStream {
	s := &LineStream{
		Queue:  NewQueue(),
		log:    logr.Discard(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.readLoop(r)
	return s
}

// Closed is closed once the reader goroutine has exited.
func (s *LineStream) Closed() <-chan struct{} {
	return s.closed
}

func (s *LineStream) readLoop(r io.Reader) {
	defer close(s.closed)
	defer s.Finish()

	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			s.deliver(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Error(err, "Reading engine output failed")
			}
			return
		}
	}
}

func (s *LineStream) deliver(line []byte) {
	msg, err := protocol.ParseLine(line)
	if err != nil {
		s.log.Info("Dropping unreadable line from engine", "error", err.Error(), "line", string(bytes.TrimSpace(line)))
		return
	}
	s.Put(msg)
}
