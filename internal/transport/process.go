package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// State is where a Process is in its life.
type State int

const (
	StateCreated State = iota // not started yet
	StateRunning
	StateExited // exited on its own, with any status
	StateKilled // ended by a signal
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	}
	return fmt.Sprintf("unknown(%d)", s)
}

// Process is a child process with piped standard streams.
//
// Stdout and Stderr are fed through in-memory pipes so that every byte the
// child wrote is readable before they report EOF. The process is only reaped
// once both have been drained. Process is safe for concurrent use.
type Process struct {
	ID      string // random, for log correlation
	Name    string
	Cmd     *exec.Cmd
	Started time.Time

	// Valid after Start.
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser

	stdoutW *io.PipeWriter
	stderrW *io.PipeWriter

	state    atomic.Int32
	exitCode atomic.Int32
	done     chan struct{}

	mu      sync.RWMutex
	exitErr error
}

// NewProcess creates a Process for cmd with a fresh random ID. The command
// must not have been started and its standard streams must be unset.
func NewProcess(name string, cmd *exec.Cmd) *Process {
	p := &Process{
		ID:   uuid.New().String(),
		Name: name,
		Cmd:  cmd,
		done: make(chan struct{}),
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1)
	return p
}

func (p *Process) State() State {
	return State(p.state.Load())
}

// ExitCode is -1 until the process has been reaped, and for a process that
// could not be waited on.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError is what exec.Cmd.Wait returned.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Done is closed when the process has exited and its output has been
// drained.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

func (p *Process) HasExited() bool {
	switch p.State() {
	case StateExited, StateKilled:
		return true
	}
	return false
}

// PID is -1 before Start.
func (p *Process) PID() int {
	if proc := p.Cmd.Process; proc != nil {
		return proc.Pid
	}
	return -1
}

// Signal delivers sig. It returns os.ErrProcessDone once the process has
// been reaped.
func (p *Process) Signal(sig os.Signal) error {
	if p.Cmd.Process == nil {
		return ErrProcessNotStarted
	}
	if p.HasExited() {
		return os.ErrProcessDone
	}
	return p.Cmd.Process.Signal(sig)
}

func (p *Process) Kill() error      { return p.Signal(syscall.SIGKILL) }
func (p *Process) Terminate() error { return p.Signal(syscall.SIGTERM) }

// Start wires the standard streams and starts the process.
func (p *Process) Start() error {
	if p.State() != StateCreated {
		return ErrProcessAlreadyStarted
	}

	stdin, err := p.Cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe for %s: %w", p.Name, err)
	}

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	p.Cmd.Stdout = stdoutW
	p.Cmd.Stderr = stderrW

	if err := p.Cmd.Start(); err != nil {
		for _, c := range []io.Closer{stdin, stdoutW, stderrW} {
			_ = c.Close()
		}
		return fmt.Errorf("starting %s: %w", p.Name, err)
	}

	p.Stdin = stdin
	p.Stdout = stdoutR
	p.Stderr = stderrR
	p.stdoutW = stdoutW
	p.stderrW = stderrW
	p.Started = time.Now()
	p.state.Store(int32(StateRunning))

	go p.reap()
	return nil
}

// reap waits for the process and records how it ended. Wait returns only
// after the output has been copied into the pipes, so closing the writers
// afterwards delivers EOF behind the last byte.
func (p *Process) reap() {
	err := p.Cmd.Wait()
	_ = p.stdoutW.Close()
	_ = p.stderrW.Close()

	code, state := 0, StateExited
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			state = StateKilled
		}
	default:
		code = -1
	}

	p.mu.Lock()
	p.exitErr = err
	p.mu.Unlock()

	p.exitCode.Store(int32(code))
	p.state.Store(int32(state))
	close(p.done)
}

// Stop closes stdin, sends SIGTERM and waits up to grace for the process to
// exit. After that the process is killed and any unread output discarded.
// It returns once the process has been reaped.
func (p *Process) Stop(grace time.Duration) error {
	if p.State() == StateCreated {
		return ErrProcessNotStarted
	}

	_ = p.Stdin.Close()
	_ = p.Terminate()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	}

	var err error
	if kerr := p.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
		err = fmt.Errorf("kill process %s: %w", p.ID, kerr)
	}
	_ = p.Stdout.Close()
	_ = p.Stderr.Close()
	<-p.done
	return err
}

// Runtime returns how long the process has been running.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	return time.Since(p.Started)
}
