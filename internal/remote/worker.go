package remote

import (
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/anaclient/internal/protocol"
)

// work is the worker loop of s. It handles one message at a time until the
// stream is done, then abandons whatever is still pending.
func (c *Client) work(s *session) {
	defer close(s.done)

	for {
		msg, ok := s.stream.Take()
		if !ok {
			break
		}
		c.process(s, msg)
		s.stream.MarkDrained()
	}

	c.log.V(1).Info("Engine stream ended")
	s.pending.close()
	if err := s.sink.Close(); err != nil {
		c.log.V(1).Info("Closing request sink failed", "error", err.Error())
	}
	c.abandon(s)
	c.sessionEnded(s)
}

// process classifies and dispatches a single message. A panic raised by a
// decoder, callback or listener is logged and the loop carries on.
func (c *Client) process(s *session, msg gjson.Result) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error(panicError(p), "Recovered from panic while handling message")
		}
	}()

	c.lastResponse.Store(time.Now().UnixMilli())
	c.traceMessage(msg)

	switch protocol.Classify(msg) {
	case protocol.KindResponse:
		c.handleResponse(s, msg)
	case protocol.KindNotification:
		c.handleNotification(msg)
	default:
		c.log.V(1).Info("Dropping message that is neither a response nor a notification", "message", msg.Raw)
	}
}
