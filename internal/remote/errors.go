package remote

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Standard errors returned by the client.
var (
	// ErrNotStarted indicates the client has not been started.
	ErrNotStarted = errors.New("analysis client not started")

	// ErrAlreadyStarted indicates the client is already running.
	ErrAlreadyStarted = errors.New("analysis client already started")

	// ErrClosed indicates the engine connection is already closed.
	ErrClosed = errors.New("engine connection closed")

	// ErrNoTransport indicates the client was created without a transport.
	ErrNoTransport = errors.New("no transport configured")

	// ErrSupervisorRunning indicates the supervisor was started twice.
	ErrSupervisorRunning = errors.New("supervisor already running")
)

// VersionError reports an engine whose protocol version is outside the
// supported range.
type VersionError struct {
	Version string
	Min     string
	Max     string
	Reason  string
}

// Error implements the error interface.
func (e *VersionError) Error() string {
	return fmt.Sprintf("engine version %q: %s", e.Version, e.Reason)
}

// panicError converts a recovered value to an error carrying the stack of the
// panicking goroutine.
func panicError(value any) error {
	if err, ok := value.(error); ok {
		return fmt.Errorf("panic: %w\n%s", err, debug.Stack())
	}
	return fmt.Errorf("panic: %v\n%s", value, debug.Stack())
}
