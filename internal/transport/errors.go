package transport

import "errors"

// Sentinel errors for the transport package.
var (
	// ErrProcessNotStarted is returned when operations require a started process.
	ErrProcessNotStarted = errors.New("process not started")

	// ErrProcessAlreadyStarted is returned when trying to start a process twice.
	ErrProcessAlreadyStarted = errors.New("process already started")

	// ErrNoCommand is returned when no engine command is configured.
	ErrNoCommand = errors.New("no engine command configured")

	// ErrEngineRunning is returned when starting a transport whose engine is
	// still running.
	ErrEngineRunning = errors.New("engine already running")
)
