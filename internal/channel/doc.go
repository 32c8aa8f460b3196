// Package channel provides the two message channels between the client and an
// analysis engine.
//
// A RequestSink accepts outbound requests. Once closed it silently drops
// anything added to it, so late callers never see an error just because the
// engine went away.
//
// A ResponseStream delivers inbound messages to a single consumer in arrival
// order. The consumer calls MarkDrained after fully handling each message,
// which lets WaitForEmpty act as a quiescence barrier in tests and during
// shutdown.
package channel
