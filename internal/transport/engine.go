package transport

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/dshills/anaclient/internal/channel"
	"github.com/dshills/anaclient/internal/remote"
)

// EngineConfig defines how to launch an analysis engine.
type EngineConfig struct {
	// Command is the executable to run.
	Command string

	// Args are command-line arguments.
	Args []string

	// Env are additional environment variables.
	Env map[string]string

	// WorkDir is the working directory (defaults to the current one).
	WorkDir string

	// StopTimeout is how long Stop waits after SIGTERM before killing the
	// engine (default: 5s).
	StopTimeout time.Duration

	// RequestTime stamps every request with clientRequestTime.
	RequestTime bool
}

// Option configures a ProcessTransport.
type Option func(*ProcessTransport)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(t *ProcessTransport) {
		t.log = log
	}
}

// ProcessTransport runs the engine as a child process and talks to it over
// its standard streams. Each Start launches a new process.
type ProcessTransport struct {
	config EngineConfig
	log    logr.Logger

	mu     sync.Mutex
	proc   *Process
	sink   *channel.LineSink
	stream *channel.LineStream
}

var _ remote.Transport = (*ProcessTransport)(nil)

// NewProcessTransport creates a transport for the engine described by config.
func NewProcessTransport(config EngineConfig, opts ...Option) *ProcessTransport {
	if config.StopTimeout == 0 {
		config.StopTimeout = 5 * time.Second
	}

	t := &ProcessTransport{
		config: config,
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the engine. The process is not tied to ctx; it runs until
// Stop is called or it exits on its own.
func (t *ProcessTransport) Start(ctx context.Context) error {
	if t.config.Command == "" {
		return ErrNoCommand
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.proc != nil && !t.proc.HasExited() {
		return ErrEngineRunning
	}

	cmd := exec.Command(t.config.Command, t.config.Args...)
	cmd.Dir = t.config.WorkDir
	cmd.Env = mergeEnv(os.Environ(), t.config.Env)

	proc := NewProcess("analysis-engine", cmd)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launching %s: %w", t.config.Command, err)
	}

	log := t.log.WithValues("process", proc.ID)
	t.proc = proc
	t.sink = channel.NewLineSink(proc.Stdin, proc.Stdin,
		channel.WithRequestTime(t.config.RequestTime),
		channel.WithSinkLogger(log),
	)
	t.stream = channel.NewLineStream(proc.Stdout, channel.WithStreamLogger(log))

	log.Info("Engine process started", "command", t.config.Command, "pid", proc.PID())
	return nil
}

// Stop closes the engine's stdin, then terminates it. It is safe to call more
// than once.
func (t *ProcessTransport) Stop() error {
	t.mu.Lock()
	proc, sink := t.proc, t.sink
	t.mu.Unlock()

	if proc == nil {
		return nil
	}

	if err := sink.Close(); err != nil {
		t.log.V(1).Info("Closing engine stdin failed", "error", err.Error())
	}
	if err := proc.Stop(t.config.StopTimeout); err != nil {
		return err
	}

	t.log.Info("Engine process stopped", "process", proc.ID, "state", proc.State().String(), "exitCode", proc.ExitCode())
	return nil
}

// IsOpen reports whether the engine process is still running.
func (t *ProcessTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.proc != nil && t.proc.IsRunning()
}

// Sink implements remote.Transport.
func (t *ProcessTransport) Sink() channel.RequestSink {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sink
}

// Stream implements remote.Transport.
func (t *ProcessTransport) Stream() channel.ResponseStream {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stream
}

// Diagnostics returns the engine's stderr.
func (t *ProcessTransport) Diagnostics() io.Reader {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.proc == nil {
		return nil
	}
	return t.proc.Stderr
}

// Process returns the current engine process, or nil before Start.
func (t *ProcessTransport) Process() *Process {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.proc
}

// mergeEnv appends extra to base in a stable order. Later entries win when
// the process looks a variable up.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(base)+len(extra))
	env = append(env, base...)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}
