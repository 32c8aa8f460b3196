package remote

import (
	"context"
	"io"

	"github.com/dshills/anaclient/internal/channel"
)

// Transport brings up the connection to an engine. The client does not know
// how the engine is located or launched.
type Transport interface {
	// Start opens the connection. Sink, Stream and Diagnostics are valid after
	// Start returns nil.
	Start(ctx context.Context) error

	// Stop tears the connection down. It must be safe to call more than once.
	Stop() error

	// IsOpen reports whether the engine is still reachable.
	IsOpen() bool

	// Sink returns the outbound channel.
	Sink() channel.RequestSink

	// Stream returns the inbound channel.
	Stream() channel.ResponseStream

	// Diagnostics returns the engine's free-text diagnostic output, or nil if
	// there is none.
	Diagnostics() io.Reader
}
