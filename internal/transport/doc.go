// Package transport launches an analysis engine as a child process and
// exposes its standard streams as the client's channels.
//
// The engine reads requests from stdin, one JSON object per line, and writes
// responses and notifications to stdout the same way. Anything it prints to
// stderr is free-text diagnostics, which the client scans for crash reports.
//
// Basic usage:
//
//	t := transport.NewProcessTransport(transport.EngineConfig{
//		Command: "dart",
//		Args:    []string{"language-server", "--protocol=analyzer"},
//	}, transport.WithLogger(log))
//	client := remote.NewClient(t)
//
// The diagnostics stream must be read until EOF; the process is not reaped
// until it has been.
package transport
