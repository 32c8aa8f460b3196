package remote

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"
)

// SupervisorState is the phase a Supervisor is in.
type SupervisorState int32

const (
	SupervisorStateIdle       SupervisorState = iota // not started
	SupervisorStateRunning                           // engine up
	SupervisorStateRestarting                        // waiting out the backoff or restarting
	SupervisorStateFailed                            // out of attempts
	SupervisorStateStopped                           // Stop was called
)

var supervisorStateNames = [...]string{"idle", "running", "restarting", "failed", "stopped"}

func (s SupervisorState) String() string {
	if s < 0 || int(s) >= len(supervisorStateNames) {
		return "unknown"
	}
	return supervisorStateNames[s]
}

// SupervisorConfig sets the restart policy. Delays grow from InitialBackoff
// by BackoffMultiplier up to MaxBackoff. After MaxRestarts consecutive
// attempts the supervisor gives up; an engine that stays up for ResetWindow
// earns a fresh budget.
type SupervisorConfig struct {
	MaxRestarts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	ResetWindow       time.Duration
}

// DefaultSupervisorConfig allows 5 attempts, 1s to 1m apart.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		MaxRestarts:       5,
		InitialBackoff:    time.Second,
		MaxBackoff:        time.Minute,
		BackoffMultiplier: 2,
		ResetWindow:       5 * time.Minute,
	}
}

// SupervisorEventType says what a SupervisorEvent reports.
type SupervisorEventType int

const (
	SupervisorEventCrash      SupervisorEventType = iota // engine went away unasked
	SupervisorEventRestarting                            // attempt scheduled after NextRetry
	SupervisorEventRecovered                             // engine running again
	SupervisorEventFailed                                // supervisor gave up
)

var supervisorEventNames = [...]string{"crash", "restarting", "recovered", "failed"}

func (t SupervisorEventType) String() string {
	if t < 0 || int(t) >= len(supervisorEventNames) {
		return "unknown"
	}
	return supervisorEventNames[t]
}

// SupervisorEvent is sent on the Events channel. Attempt counts from 1 within
// the current reset window.
type SupervisorEvent struct {
	Type      SupervisorEventType
	Error     error
	Attempt   int
	NextRetry time.Duration
}

// errEngineDied is reported with crash events.
var errEngineDied = errors.New("engine connection closed unexpectedly")

// RestartHook runs after every successful restart, typically to send the
// analysis roots and subscriptions again. An error counts as a failed
// attempt.
type RestartHook func(ctx context.Context, c *Client) error

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithSupervisorLogger sets the logger.
func WithSupervisorLogger(log logr.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.log = log
	}
}

// WithRestartHook sets the hook run after each restart.
func WithRestartHook(hook RestartHook) SupervisorOption {
	return func(s *Supervisor) {
		s.onRestart = hook
	}
}

// Supervisor restarts a Client whose engine goes away without being asked
// to, waiting longer after each consecutive failure.
//
// Thread Safety: Supervisor is safe for concurrent use. The state field uses
// atomic operations for lock-free reads; the restart bookkeeping is guarded
// by mu.
type Supervisor struct {
	mu sync.Mutex

	client    *Client
	config    SupervisorConfig
	log       logr.Logger
	onRestart RestartHook

	// restart bookkeeping (protected by mu)
	state        atomic.Int32
	restartCount int
	lastStart    time.Time
	backoff      *backoff.ExponentialBackOff

	// deaths receives a signal each time the engine goes away on its own
	deaths chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	eventCh   chan SupervisorEvent
	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewSupervisor creates a supervisor for client. It does not start the
// client.
func NewSupervisor(client *Client, config SupervisorConfig, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		client:  client,
		config:  config,
		log:     logr.Discard(),
		deaths:  make(chan struct{}, 1),
		eventCh: make(chan SupervisorEvent, 16),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.backoff = newBackoff(config)
	s.state.Store(int32(SupervisorStateIdle))

	client.AddStatusListener(StatusFunc(s.serverAlive))
	return s
}

func newBackoff(config SupervisorConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = config.InitialBackoff
	b.MaxInterval = config.MaxBackoff
	b.Multiplier = config.BackoffMultiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// serverAlive runs with the client's lifecycle lock held, so it only signals
// the monitor.
func (s *Supervisor) serverAlive(alive bool) {
	if alive || s.client.StopRequested() {
		return
	}
	select {
	case s.deaths <- struct{}{}:
	default:
	}
}

// Start starts the client and begins supervision.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if SupervisorState(s.state.Load()) != SupervisorStateIdle {
		return ErrSupervisorRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.client.Start(s.ctx); err != nil {
		s.state.Store(int32(SupervisorStateFailed))
		return err
	}
	s.lastStart = time.Now()
	s.state.Store(int32(SupervisorStateRunning))

	go s.monitor()
	return nil
}

// monitor waits for the engine to go away and restarts it.
func (s *Supervisor) monitor() {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.deaths:
			if !s.handleCrashWithRetry() {
				return
			}
		}
	}
}

// handleCrashWithRetry restarts the client until an attempt succeeds.
// Returns false if the supervisor gave up or was stopped.
func (s *Supervisor) handleCrashWithRetry() bool {
	var cause error = errEngineDied

	for {
		s.mu.Lock()

		if SupervisorState(s.state.Load()) == SupervisorStateStopped {
			s.mu.Unlock()
			return false
		}

		if time.Since(s.lastStart) > s.config.ResetWindow {
			s.restartCount = 0
			s.backoff.Reset()
		}
		s.restartCount++

		s.emitEventLocked(SupervisorEvent{
			Type:    SupervisorEventCrash,
			Error:   cause,
			Attempt: s.restartCount,
		})

		if s.restartCount > s.config.MaxRestarts {
			s.state.Store(int32(SupervisorStateFailed))
			s.log.Info("Giving up on the analysis engine", "attempts", s.restartCount-1)
			s.emitEventLocked(SupervisorEvent{
				Type:    SupervisorEventFailed,
				Error:   cause,
				Attempt: s.restartCount,
			})
			s.mu.Unlock()
			return false
		}

		delay := s.backoff.NextBackOff()
		s.state.Store(int32(SupervisorStateRestarting))
		s.log.Info("Restarting analysis engine", "attempt", s.restartCount, "delay", delay)
		s.emitEventLocked(SupervisorEvent{
			Type:      SupervisorEventRestarting,
			Attempt:   s.restartCount,
			NextRetry: delay,
		})

		s.mu.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}

		s.mu.Lock()

		if SupervisorState(s.state.Load()) == SupervisorStateStopped {
			s.mu.Unlock()
			return false
		}

		if err := s.restartLocked(); err != nil {
			s.log.Error(err, "Restart attempt failed", "attempt", s.restartCount)
			cause = err
			s.mu.Unlock()
			continue
		}

		s.state.Store(int32(SupervisorStateRunning))
		s.emitEventLocked(SupervisorEvent{
			Type:    SupervisorEventRecovered,
			Attempt: s.restartCount,
		})

		s.mu.Unlock()
		return true
	}
}

// restartLocked stops whatever is left of the old connection and starts a
// new one (must hold mu).
func (s *Supervisor) restartLocked() error {
	if err := s.client.Stop(); err != nil {
		s.log.V(1).Info("Stopping the old connection failed", "error", err.Error())
	}
	<-s.client.Done()

	if err := s.client.Start(s.ctx); err != nil {
		return err
	}
	s.lastStart = time.Now()
	s.client.metrics.EngineRestarted()

	if s.onRestart != nil {
		if err := s.onRestart(s.ctx, s.client); err != nil {
			return err
		}
	}
	return nil
}

// emitEventLocked sends an event to listeners. Events are dropped if the
// channel is full or closed.
func (s *Supervisor) emitEventLocked(event SupervisorEvent) {
	if s.closed.Load() {
		return
	}
	select {
	case s.eventCh <- event:
	default:
	}
}

// Stop ends supervision and shuts the engine down, forcing it if the engine
// does not answer before ctx expires.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	state := SupervisorState(s.state.Load())
	if state == SupervisorStateStopped || state == SupervisorStateIdle {
		s.mu.Unlock()
		return nil
	}
	s.state.Store(int32(SupervisorStateStopped))
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		close(s.eventCh)
		s.mu.Unlock()
	})

	if s.client.Status() == ClientStatusStopped {
		return nil
	}
	if err := s.client.Shutdown(ctx); err != nil {
		s.log.V(1).Info("Engine did not shut down cleanly, stopping it", "error", err.Error())
		return s.client.Stop()
	}
	return nil
}

func (s *Supervisor) State() SupervisorState {
	return SupervisorState(s.state.Load())
}

// RestartCount is the number of attempts in the current reset window.
func (s *Supervisor) RestartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restartCount
}

// Events delivers restart progress. Events are dropped when nobody keeps up.
// The channel is closed by Stop.
func (s *Supervisor) Events() <-chan SupervisorEvent {
	return s.eventCh
}

// Done returns a channel closed when the monitor goroutine has exited.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}
