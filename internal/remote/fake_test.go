package remote

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/anaclient/internal/channel"
	"github.com/dshills/anaclient/internal/protocol"
)

// fakeTransport is an in-memory engine connection. Each Start opens a fresh
// sink and stream.
type fakeTransport struct {
	mu       sync.Mutex
	sink     *channel.MemorySink
	stream   *channel.Queue
	diag     io.Reader
	open     bool
	starts   int
	stops    int
	startErr error
}

var _ Transport = (*fakeTransport)(nil)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (t *fakeTransport) Start(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.startErr != nil {
		return t.startErr
	}
	t.sink = channel.NewMemorySink()
	t.stream = channel.NewQueue()
	t.open = true
	t.starts++
	return nil
}

func (t *fakeTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.open = false
	t.stops++
	if t.stream != nil {
		t.stream.Finish()
	}
	return nil
}

// kill simulates the engine going away on its own.
func (t *fakeTransport) kill() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.open = false
	t.stream.Finish()
}

func (t *fakeTransport) setOpen(open bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = open
}

func (t *fakeTransport) failStarts(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startErr = err
}

func (t *fakeTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *fakeTransport) Sink() channel.RequestSink {
	return t.memSink()
}

func (t *fakeTransport) Stream() channel.ResponseStream {
	return t.queue()
}

func (t *fakeTransport) Diagnostics() io.Reader {
	return t.diag
}

func (t *fakeTransport) memSink() *channel.MemorySink {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sink
}

func (t *fakeTransport) queue() *channel.Queue {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stream
}

func (t *fakeTransport) counts() (starts, stops int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.starts, t.stops
}

// put delivers a raw inbound line.
func (t *fakeTransport) put(raw string) {
	t.queue().Put(gjson.Parse(raw))
}

// settle waits until every delivered message has been handled.
func (t *fakeTransport) settle(tb testing.TB) {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(tb, t.queue().WaitForEmpty(ctx))
}

// requests returns what the client has sent on the current connection.
func (t *fakeTransport) requests() []protocol.Request {
	return t.memSink().Requests()
}

// waitForRequests waits until at least n requests have been sent.
func (t *fakeTransport) waitForRequests(tb testing.TB, n int) []protocol.Request {
	tb.Helper()

	require.Eventually(tb, func() bool { return len(t.requests()) >= n }, 2*time.Second, time.Millisecond)
	return t.requests()
}

// startClient starts a client over a fresh fake transport.
func startClient(tb testing.TB, opts ...ClientOption) (*Client, *fakeTransport) {
	tb.Helper()

	tr := newFakeTransport()
	c := NewClient(tr, opts...)
	require.NoError(tb, c.Start(context.Background()))
	tb.Cleanup(func() {
		_ = c.Stop()
	})
	return c, tr
}

// waitDone waits for the worker of the current connection to exit.
func waitDone(tb testing.TB, c *Client) {
	tb.Helper()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		tb.Fatal("worker did not exit")
	}
}

// recorder is a Listener that records what it receives.
type recorder struct {
	BaseListener

	mu           sync.Mutex
	name         string
	log          *[]string
	statuses     []protocol.ServerStatus
	fileErrors   []protocol.FileErrors
	crashes      []protocol.ServerError
	requestErrs  []*protocol.RequestError
	incompatible []string
}

func (r *recorder) note(event string) {
	if r.log != nil {
		*r.log = append(*r.log, r.name+":"+event)
	}
}

func (r *recorder) ServerStatus(s protocol.ServerStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.note("status")
	r.statuses = append(r.statuses, s)
}

func (r *recorder) ComputedErrors(e protocol.FileErrors) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.note("errors")
	r.fileErrors = append(r.fileErrors, e)
}

func (r *recorder) ServerCrashReport(e protocol.ServerError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crashes = append(r.crashes, e)
}

func (r *recorder) RequestError(e *protocol.RequestError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestErrs = append(r.requestErrs, e)
}

func (r *recorder) ServerIncompatibleVersion(version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incompatible = append(r.incompatible, version)
}

func (r *recorder) snapshot() recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recorder{
		statuses:     append([]protocol.ServerStatus(nil), r.statuses...),
		fileErrors:   append([]protocol.FileErrors(nil), r.fileErrors...),
		crashes:      append([]protocol.ServerError(nil), r.crashes...),
		requestErrs:  append([]*protocol.RequestError(nil), r.requestErrs...),
		incompatible: append([]string(nil), r.incompatible...),
	}
}

// aliveLog records ServerAlive calls.
type aliveLog struct {
	mu     sync.Mutex
	values []bool
}

func (a *aliveLog) ServerAlive(alive bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values = append(a.values, alive)
}

func (a *aliveLog) get() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]bool(nil), a.values...)
}

var errStartRefused = errors.New("start refused")
