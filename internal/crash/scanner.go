// Package crash recovers uncaught-exception reports from an engine's
// diagnostic output.
//
// The engine prints a banner line when it dies of an unhandled exception,
// followed by the exception message and, after an optional marker, the stack
// frames. Scanner watches for that shape and emits one Report per crash when
// the stream ends.
package crash

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"runtime/debug"
	"strings"

	"github.com/go-logr/logr"
)

const (
	// Banner starts a crash report.
	Banner = "Unhandled exception:"

	// StackTraceMarker separates the message from the stack frames.
	StackTraceMarker = "Stack Trace:"
)

var framePattern = regexp.MustCompile(`^#\d+\s`)

// State is the scanner's position within a crash report.
type State int

const (
	// StateScanning is outside any report.
	StateScanning State = iota
	// StateCapturingMessage collects exception message lines.
	StateCapturingMessage
	// StateCapturingTrace collects stack frames.
	StateCapturingTrace
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateCapturingMessage:
		return "capturing-message"
	case StateCapturingTrace:
		return "capturing-trace"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Report is a recovered crash. IsFatal is always false: a scraped report
// cannot tell whether the engine meant to stop.
type Report struct {
	IsFatal    bool
	Message    string
	StackTrace string
}

// Reporter receives crash reports.
type Reporter func(Report)

// Scanner is the crash report state machine. A Scanner is not safe for
// concurrent use; Run owns it for the lifetime of a stream.
type Scanner struct {
	report      Reporter
	passthrough func(line string)
	log         logr.Logger

	state   State
	message []string
	trace   []string
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithPassthrough sends every line to fn before it is scanned.
func WithPassthrough(fn func(line string)) Option {
	return func(s *Scanner) {
		s.passthrough = fn
	}
}

// WithWriterPassthrough copies every line to w.
func WithWriterPassthrough(w io.Writer) Option {
	return WithPassthrough(func(line string) {
		fmt.Fprintln(w, line)
	})
}

// WithLogPassthrough logs every line at verbosity 1.
func WithLogPassthrough(log logr.Logger) Option {
	return WithPassthrough(func(line string) {
		log.V(1).Info("engine", "line", line)
	})
}

// WithLogger sets the logger used for scanner diagnostics.
func WithLogger(log logr.Logger) Option {
	return func(s *Scanner) {
		s.log = log
	}
}

// NewScanner creates a Scanner delivering reports to report.
func NewScanner(report Reporter, opts ...Option) *Scanner {
	s := &Scanner{
		report:      report,
		passthrough: func(string) {},
		log:         logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Scanner) State() State {
	return s.state
}

// Feed processes a single line without its line terminator.
func (s *Scanner) Feed(line string) {
	s.passthrough(line)
	s.step(line)
}

func (s *Scanner) step(line string) {
	switch s.state {
	case StateScanning:
		if line == Banner {
			s.begin()
		}

	case StateCapturingMessage:
		switch {
		case line == Banner:
			s.flush()
			s.begin()
		case line == StackTraceMarker:
			s.state = StateCapturingTrace
		case framePattern.MatchString(line):
			s.state = StateCapturingTrace
			s.trace = append(s.trace, line)
		default:
			s.message = append(s.message, line)
		}

	case StateCapturingTrace:
		if line == Banner {
			s.flush()
			s.begin()
			return
		}
		s.trace = append(s.trace, line)
	}
}

// Finish signals end of stream. A report in progress is emitted.
func (s *Scanner) Finish() {
	if s.state != StateScanning {
		s.flush()
	}
}

// Run feeds every line of r to the scanner and calls Finish when r is
// exhausted. It returns early without a report if ctx is cancelled between
// lines.
func (s *Scanner) Run(ctx context.Context, r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadString('\n')
		if line != "" {
			s.Feed(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			s.Finish()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading diagnostics: %w", err)
		}
	}
}

func (s *Scanner) begin() {
	s.state = StateCapturingMessage
	s.message = nil
	s.trace = nil
}

func (s *Scanner) flush() {
	rep := Report{
		IsFatal:    false,
		Message:    strings.Join(s.message, "\n"),
		StackTrace: strings.Join(s.trace, "\n"),
	}
	s.state = StateScanning
	s.message = nil
	s.trace = nil
	s.emit(rep)
}

func (s *Scanner) emit(rep Report) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(fmt.Errorf("%v", r), "Crash reporter panicked", "stack", string(debug.Stack()))
		}
	}()
	s.report(rep)
}
