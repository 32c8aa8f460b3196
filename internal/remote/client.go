package remote

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/tidwall/gjson"

	"github.com/dshills/anaclient/internal/channel"
	"github.com/dshills/anaclient/internal/crash"
	"github.com/dshills/anaclient/internal/metrics"
	"github.com/dshills/anaclient/internal/protocol"
)

// ClientStatus is the lifecycle state of a Client.
type ClientStatus int32

const (
	ClientStatusStopped ClientStatus = iota
	ClientStatusStarting
	ClientStatusRunning
	ClientStatusShuttingDown
)

// String returns a human-readable status name.
func (s ClientStatus) String() string {
	switch s {
	case ClientStatusStopped:
		return "stopped"
	case ClientStatusStarting:
		return "starting"
	case ClientStatusRunning:
		return "running"
	case ClientStatusShuttingDown:
		return "shutting down"
	default:
		return "unknown"
	}
}

// ClientConfig contains configuration for the client.
type ClientConfig struct {
	// VersionCheck holds every request except server.getVersion and
	// server.shutdown until the engine's version has been checked.
	VersionCheck bool

	// MinVersion is the oldest accepted engine version, inclusive.
	MinVersion string

	// MaxVersion is the first rejected engine version.
	MaxVersion string

	// WatchInterval enables the liveness watcher when positive. The transport
	// is polled every half interval.
	WatchInterval time.Duration
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		VersionCheck:  false,
		MinVersion:    "1.9.0",
		MaxVersion:    "2.0.0",
		WatchInterval: 0,
	}
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithClientConfig sets the full client configuration.
func WithClientConfig(config ClientConfig) ClientOption {
	return func(c *Client) {
		c.config = config
	}
}

// WithVersionCheck enables the version gate with the range
// [minVersion, maxVersion).
func WithVersionCheck(minVersion, maxVersion string) ClientOption {
	return func(c *Client) {
		c.config.VersionCheck = true
		c.config.MinVersion = minVersion
		c.config.MaxVersion = maxVersion
	}
}

// WithWatchInterval enables the liveness watcher.
func WithWatchInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.config.WatchInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracer adds a tracer that observes raw traffic.
func WithTracer(t Tracer) ClientOption {
	return func(c *Client) {
		c.tracers = append(c.tracers, t)
	}
}

// WithDiagnosticsPassthrough receives every line of the engine's diagnostic
// output. By default the lines are logged at verbosity 1.
func WithDiagnosticsPassthrough(fn func(line string)) ClientOption {
	return func(c *Client) {
		c.passthrough = fn
	}
}

// Client talks to a single analysis engine over a Transport.
//
// Requests may be issued from any goroutine. Responses and notifications are
// handled on a single worker goroutine per connection, in arrival order, and
// every callback and Listener method except ServerCrashReport runs there.
// Callbacks must not block on other responses: call Shutdown from outside the
// worker, or use ServerShutdown with a callback.
type Client struct {
	// mu serializes Start, Stop and the end of a session
	mu sync.Mutex

	transport Transport
	config    ClientConfig
	log       logr.Logger
	metrics   *metrics.Metrics
	listeners *registry

	tracers     []Tracer
	passthrough func(line string)

	status        atomic.Int32
	session       atomic.Pointer[session]
	nextID        atomic.Int64
	stopRequested atomic.Bool
	lastRequest   atomic.Int64
	lastResponse  atomic.Int64
}

// session is the state of one connection, from Start until the worker exits.
type session struct {
	// sink is the gate when the version check is enabled
	sink    channel.RequestSink
	stream  channel.ResponseStream
	pending *pendingTable
	gate    *versionGate

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	endOnce  sync.Once
	stopOnce sync.Once
	stopErr  error
}

// NewClient creates a client for the engine behind t. The client is stopped
// until Start is called.
func NewClient(t Transport, opts ...ClientOption) *Client {
	c := &Client{
		transport: t,
		config:    DefaultClientConfig(),
		log:       logr.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.listeners = newRegistry(c.log)
	c.status.Store(int32(ClientStatusStopped))
	return c
}

// Start connects to the engine and starts the worker. Start after Stop or a
// completed shutdown opens a fresh connection with an empty pending table.
func (c *Client) Start(ctx context.Context) error {
	if c.transport == nil {
		return ErrNoTransport
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.status.CompareAndSwap(int32(ClientStatusStopped), int32(ClientStatusStarting)) {
		return ErrAlreadyStarted
	}

	if err := c.transport.Start(ctx); err != nil {
		c.status.Store(int32(ClientStatusStopped))
		return fmt.Errorf("starting transport: %w", err)
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &session{
		sink:    c.transport.Sink(),
		stream:  c.transport.Stream(),
		pending: newPendingTable(&c.nextID),
		ctx:     sctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	if c.config.VersionCheck {
		s.gate = newVersionGate(s.sink, s.stream, c.log)
		s.sink = s.gate
	}

	c.stopRequested.Store(false)
	c.session.Store(s)

	go c.work(s)
	if diag := c.transport.Diagnostics(); diag != nil {
		go c.scanDiagnostics(diag)
	}

	c.status.Store(int32(ClientStatusRunning))
	c.log.Info("Analysis engine started")

	if c.config.VersionCheck {
		c.checkVersion(s)
	}
	if c.config.WatchInterval > 0 {
		go c.watch(s, c.config.WatchInterval)
	}

	c.listeners.serverAlive(true)
	return nil
}

// Shutdown asks the engine to shut down and waits until the response has
// been handled or ctx expires. The connection is closed only if the engine
// accepts the request.
func (c *Client) Shutdown(ctx context.Context) error {
	s := c.session.Load()
	if s == nil || c.Status() == ClientStatusStopped {
		return ErrNotStarted
	}

	result := make(chan *protocol.RequestError, 1)
	if id := c.shutdownSession(s, func(rerr *protocol.RequestError) { result <- rerr }); id == "" {
		return ErrClosed
	}

	select {
	case rerr := <-result:
		if rerr != nil {
			return fmt.Errorf("shutting down engine: %w", rerr)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServerShutdown sends server.shutdown. When the engine answers without an
// error the connection is closed and the transport stopped before cb runs.
func (c *Client) ServerShutdown(cb func(*protocol.RequestError)) {
	s := c.session.Load()
	if s == nil {
		return
	}
	c.shutdownSession(s, cb)
}

func (c *Client) shutdownSession(s *session, cb func(*protocol.RequestError)) string {
	c.stopRequested.Store(true)
	c.status.CompareAndSwap(int32(ClientStatusRunning), int32(ClientStatusShuttingDown))

	id := c.send(s, protocol.MethodServerShutdown, nil, func(_ gjson.Result, rerr *protocol.RequestError) *protocol.RequestError {
		switch {
		case rerr == nil:
			s.pending.close()
			if err := s.sink.Close(); err != nil {
				c.log.V(1).Info("Closing request sink failed", "error", err.Error())
			}
			if err := c.stopTransport(s); err != nil {
				c.log.Error(err, "Stopping transport failed")
			}
			c.sessionEnded(s)
		case rerr.Code != protocol.CodeServerTerminated:
			c.log.Info("Engine refused to shut down", "code", rerr.Code, "message", rerr.Message)
			c.status.CompareAndSwap(int32(ClientStatusShuttingDown), int32(ClientStatusRunning))
			c.stopRequested.Store(false)
		}

		if cb != nil {
			cb(rerr)
		}
		return rerr
	})
	if id == "" {
		c.status.CompareAndSwap(int32(ClientStatusShuttingDown), int32(ClientStatusRunning))
	}
	return id
}

// Stop tears the connection down without asking the engine. Calls still
// pending are completed with SERVER_TERMINATED on the worker goroutine; Done
// is closed once that has happened.
func (c *Client) Stop() error {
	c.mu.Lock()
	s := c.session.Load()
	if s == nil || c.Status() == ClientStatusStopped {
		c.mu.Unlock()
		return nil
	}
	c.stopRequested.Store(true)
	c.status.Store(int32(ClientStatusShuttingDown))
	c.mu.Unlock()

	err := c.stopTransport(s)
	c.sessionEnded(s)
	if err != nil {
		return fmt.Errorf("stopping transport: %w", err)
	}
	return nil
}

func (c *Client) stopTransport(s *session) error {
	s.stopOnce.Do(func() {
		s.stopErr = c.transport.Stop()
	})
	return s.stopErr
}

// sessionEnded closes s for good. It runs once per session, whichever of the
// worker, the watcher, Stop or a completed shutdown gets there first.
func (c *Client) sessionEnded(s *session) {
	s.endOnce.Do(func() {
		s.pending.close()
		if err := s.sink.Close(); err != nil {
			c.log.V(1).Info("Closing request sink failed", "error", err.Error())
		}
		s.stream.Finish()
		s.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.session.Load() == s {
			c.status.Store(int32(ClientStatusStopped))
		}
		c.log.Info("Analysis engine connection closed", "stopRequested", c.stopRequested.Load())
		c.listeners.serverAlive(false)
	})
}

// Status returns the lifecycle state.
func (c *Client) Status() ClientStatus {
	return ClientStatus(c.status.Load())
}

// StopRequested reports whether the current or last connection was closed on
// purpose, through Stop, Shutdown or a rejected version.
func (c *Client) StopRequested() bool {
	return c.stopRequested.Load()
}

// Done returns a channel closed when the worker of the current connection
// has exited. It returns a closed channel if the client was never started.
func (c *Client) Done() <-chan struct{} {
	if s := c.session.Load(); s != nil {
		return s.done
	}
	done := make(chan struct{})
	close(done)
	return done
}

// PendingCount returns the number of requests awaiting a response.
func (c *Client) PendingCount() int {
	if s := c.session.Load(); s != nil {
		return s.pending.len()
	}
	return 0
}

// LastRequestTime returns when the last request was sent.
func (c *Client) LastRequestTime() time.Time {
	return millisTime(c.lastRequest.Load())
}

// LastResponseTime returns when the last message was received.
func (c *Client) LastResponseTime() time.Time {
	return millisTime(c.lastResponse.Load())
}

func millisTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// AddListener registers l for notifications. Listeners are called in the
// order they were added.
func (c *Client) AddListener(l Listener) {
	c.listeners.add(l)
}

// RemoveListener unregisters l.
func (c *Client) RemoveListener(l Listener) {
	c.listeners.remove(l)
}

// AddStatusListener registers l for liveness changes. l is called while the
// client's lifecycle lock is held and must not call Start, Stop or Shutdown
// synchronously.
func (c *Client) AddStatusListener(l StatusListener) {
	c.listeners.addStatus(l)
}

// scanDiagnostics turns crash reports in the engine's diagnostic output into
// ServerCrashReport notifications. It runs until r is exhausted.
func (c *Client) scanDiagnostics(r io.Reader) {
	opts := []crash.Option{crash.WithLogger(c.log)}
	if c.passthrough != nil {
		opts = append(opts, crash.WithPassthrough(c.passthrough))
	} else {
		opts = append(opts, crash.WithLogPassthrough(c.log.WithName("engine")))
	}

	scanner := crash.NewScanner(func(rep crash.Report) {
		c.metrics.CrashReported()
		c.log.Info("Recovered engine crash report", "message", rep.Message)

		se := protocol.ServerError{
			IsFatal:    rep.IsFatal,
			Message:    rep.Message,
			StackTrace: rep.StackTrace,
		}
		c.listeners.broadcast("serverCrashReport", func(l Listener) { l.ServerCrashReport(se) })
	}, opts...)

	if err := scanner.Run(context.Background(), r); err != nil {
		c.log.V(1).Info("Diagnostics stream ended with an error", "error", err.Error())
	}
}

// runSafely calls fn and logs a panic instead of propagating it.
func (c *Client) runSafely(what string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error(panicError(p), "Recovered from panic", "while", what)
		}
	}()
	fn()
}
