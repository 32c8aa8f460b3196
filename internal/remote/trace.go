package remote

import (
	"github.com/tidwall/gjson"

	"github.com/dshills/anaclient/internal/protocol"
)

// Tracer observes raw traffic. RequestSent runs on the goroutine issuing the
// request and MessageReceived on the worker, before the message is handled.
type Tracer interface {
	RequestSent(req protocol.Request)
	MessageReceived(msg gjson.Result)
}

// TraceFuncs adapts a pair of functions to Tracer. Either may be nil.
type TraceFuncs struct {
	OnRequest func(req protocol.Request)
	OnMessage func(msg gjson.Result)
}

// RequestSent implements Tracer.
func (t TraceFuncs) RequestSent(req protocol.Request) {
	if t.OnRequest != nil {
		t.OnRequest(req)
	}
}

// MessageReceived implements Tracer.
func (t TraceFuncs) MessageReceived(msg gjson.Result) {
	if t.OnMessage != nil {
		t.OnMessage(msg)
	}
}

func (c *Client) traceRequest(req protocol.Request) {
	for _, t := range c.tracers {
		c.runSafely("tracing request", func() { t.RequestSent(req) })
	}
}

func (c *Client) traceMessage(msg gjson.Result) {
	for _, t := range c.tracers {
		c.runSafely("tracing message", func() { t.MessageReceived(msg) })
	}
}
