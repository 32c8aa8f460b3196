package remote

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dshills/anaclient/internal/metrics"
	"github.com/dshills/anaclient/internal/protocol"
)

// completion resolves a pending call with the response's result and error
// members. It returns the error the caller finally saw, which differs from
// rerr when the result failed to decode.
type completion func(result gjson.Result, rerr *protocol.RequestError) *protocol.RequestError

type pendingCall struct {
	id       string
	method   string
	sentAt   time.Time
	complete completion
}

// pendingTable maps request ids to their pending calls. Ids come from a
// counter shared by every table the client creates, so an id is never
// reused across restarts.
type pendingTable struct {
	counter *atomic.Int64

	mu     sync.Mutex
	calls  map[string]*pendingCall
	closed bool
}

func newPendingTable(counter *atomic.Int64) *pendingTable {
	return &pendingTable{
		counter: counter,
		calls:   make(map[string]*pendingCall),
	}
}

// register assigns the next id and records the call. It returns false once
// the table has been drained.
func (t *pendingTable) register(method string, complete completion) (*pendingCall, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, len(t.calls), false
	}

	pc := &pendingCall{
		id:       strconv.FormatInt(t.counter.Add(1)-1, 10),
		method:   method,
		sentAt:   time.Now(),
		complete: complete,
	}
	t.calls[pc.id] = pc
	return pc, len(t.calls), true
}

// remove takes the call for id out of the table.
func (t *pendingTable) remove(id string) (*pendingCall, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pc, ok := t.calls[id]
	if ok {
		delete(t.calls, id)
	}
	return pc, len(t.calls), ok
}

// close refuses further registrations. Calls already in the table stay until
// drained.
func (t *pendingTable) close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// drain empties the table, refuses further registrations and returns the
// removed calls in id order.
func (t *pendingTable) drain() []*pendingCall {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	out := make([]*pendingCall, 0, len(t.calls))
	for _, pc := range t.calls {
		out = append(out, pc)
	}
	t.calls = make(map[string]*pendingCall)

	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.ParseInt(out[i].id, 10, 64)
		b, _ := strconv.ParseInt(out[j].id, 10, 64)
		return a < b
	})
	return out
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

// call sends a request on the current connection. It returns the request id,
// or "" when the connection is closed, in which case complete is never called.
func (c *Client) call(method string, params any, complete completion) string {
	return c.send(c.session.Load(), method, params, complete)
}

// send registers a pending call on s and then transmits the request.
func (c *Client) send(s *session, method string, params any, complete completion) string {
	if s == nil || s.sink.IsClosed() {
		c.log.V(1).Info("Dropping request, engine connection is closed", "method", method)
		return ""
	}

	// The table is closed before the sink, so a call registered here always
	// reaches an open sink or is abandoned with the rest.
	pc, pending, ok := s.pending.register(method, complete)
	if !ok {
		c.log.V(1).Info("Dropping request, engine connection is closed", "method", method)
		return ""
	}
	c.metrics.SetPending(pending)

	req := protocol.Request{ID: pc.id, Method: method, Params: params}
	c.lastRequest.Store(pc.sentAt.UnixMilli())
	c.metrics.RequestSent(method)
	c.traceRequest(req)
	c.log.V(2).Info("Sending request", "id", pc.id, "method", method)

	if err := s.sink.Add(req); err != nil {
		c.log.Error(err, "Sending request failed", "id", pc.id, "method", method)
	}
	return pc.id
}

// handleResponse resolves the pending call matching msg. Responses for
// unknown ids are discarded.
func (c *Client) handleResponse(s *session, msg gjson.Result) {
	id := msg.Get("id").String()
	pc, pending, ok := s.pending.remove(id)
	if !ok {
		c.log.V(1).Info("Discarding response for unknown request", "id", id)
		c.metrics.ResponseHandled("", metrics.OutcomeUnmatched, time.Time{})
		return
	}
	c.metrics.SetPending(pending)

	var rerr *protocol.RequestError
	invalid := false
	if e := msg.Get("error"); protocol.HasError(e) {
		var err error
		if rerr, err = protocol.ParseRequestError(e); err != nil {
			invalid = true
			rerr = protocol.InvalidResponse(err)
			c.log.Info("Engine sent an invalid response", "id", id, "method", pc.method, "error", err.Error())
		} else {
			c.log.V(1).Info("Engine reported an error", "id", id, "method", pc.method, "code", rerr.Code, "message", rerr.Message)
			c.listeners.broadcast("requestError", func(l Listener) { l.RequestError(rerr) })
		}
	}

	final := pc.complete(msg.Get("result"), rerr)

	outcome := metrics.OutcomeSuccess
	switch {
	case invalid:
		outcome = metrics.OutcomeInvalid
	case rerr != nil:
		outcome = metrics.OutcomeError
	case final != nil:
		outcome = metrics.OutcomeInvalid
	}
	c.metrics.ResponseHandled(pc.method, outcome, pc.sentAt)
}

// abandon resolves every call still pending on s with SERVER_TERMINATED.
func (c *Client) abandon(s *session) {
	calls := s.pending.drain()
	c.metrics.SetPending(0)
	for _, pc := range calls {
		rerr := &protocol.RequestError{
			Code:    protocol.CodeServerTerminated,
			Message: "engine stopped before responding to " + pc.method,
		}
		c.log.V(1).Info("Abandoning request", "id", pc.id, "method", pc.method)
		c.metrics.ResponseHandled(pc.method, metrics.OutcomeAbandoned, time.Time{})
		c.runSafely("abandoning "+pc.method, func() { pc.complete(gjson.Result{}, rerr) })
	}
}

// callDecoded sends a request whose result is decoded with decode. A decode
// failure reaches cb as INVALID_SERVER_RESPONSE.
func callDecoded[T any](c *Client, method string, params any, decode func(gjson.Result) (T, error), cb func(T, *protocol.RequestError)) string {
	return c.call(method, params, func(result gjson.Result, rerr *protocol.RequestError) *protocol.RequestError {
		var zero T
		if rerr != nil {
			if cb != nil {
				cb(zero, rerr)
			}
			return rerr
		}

		v, err := decode(result)
		if err != nil {
			rerr = protocol.InvalidResponse(err)
			c.log.Info("Engine sent an invalid response", "method", method, "error", err.Error())
			if cb != nil {
				cb(zero, rerr)
			}
			return rerr
		}

		if cb != nil {
			cb(v, nil)
		}
		return nil
	})
}

// callNoResult sends a request whose result carries nothing of interest.
func callNoResult(c *Client, method string, params any, cb func(*protocol.RequestError)) string {
	return c.call(method, params, func(_ gjson.Result, rerr *protocol.RequestError) *protocol.RequestError {
		if cb != nil {
			cb(rerr)
		}
		return rerr
	})
}
