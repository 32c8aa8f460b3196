// Package remote is the client side of the analysis engine protocol.
//
// A Client sends requests over a Transport and matches each response to the
// request that caused it. Notifications are decoded and delivered to the
// registered Listeners. All inbound traffic of a connection is handled by a
// single worker goroutine in arrival order, so callbacks and listeners never
// run concurrently with each other.
//
// Basic usage:
//
//	client := remote.NewClient(transport, remote.WithLogger(log))
//	client.AddListener(myListener)
//	if err := client.Start(ctx); err != nil {
//		return err
//	}
//	client.AnalysisGetErrors(path, func(errs []protocol.AnalysisError, rerr *protocol.RequestError) {
//		// runs on the worker goroutine
//	})
//	defer client.Shutdown(ctx)
//
// Every request is resolved exactly once: with the engine's result, with the
// engine's error, with INVALID_SERVER_RESPONSE when the result cannot be
// decoded, or with SERVER_TERMINATED when the connection ends first. Requests
// made after the connection has closed are dropped silently.
//
// A Supervisor can restart the engine when it goes away on its own.
package remote
