package remote

import (
	"sync"

	"github.com/go-logr/logr"

	"github.com/dshills/anaclient/internal/protocol"
)

// Listener receives notifications from the engine.
//
// Notification methods are called on the client's worker goroutine in arrival
// order. ServerCrashReport is called from the diagnostics goroutine and may run
// concurrently with the others. Listeners are compared with ==, so register
// pointers.
type Listener interface {
	ServerConnected(protocol.ServerConnected)
	ServerStatus(protocol.ServerStatus)
	ServerError(protocol.ServerError)
	ServerCrashReport(protocol.ServerError)
	ServerIncompatibleVersion(version string)
	RequestError(*protocol.RequestError)

	ComputedAnalyzedFiles(directories []string)
	ComputedErrors(protocol.FileErrors)
	FlushedResults(files []string)
	ComputedHighlights(protocol.FileHighlights)
	ComputedImplemented(protocol.FileImplemented)
	ComputedNavigation(protocol.FileNavigation)
	ComputedOccurrences(protocol.FileOccurrences)
	ComputedOutline(protocol.FileOutline)
	ComputedOverrides(protocol.FileOverrides)
	ComputedClosingLabels(protocol.FileClosingLabels)
	ComputedCompletion(protocol.CompletionResults)
	ComputedSearchResults(protocol.SearchResults)
	ComputedLaunchData(protocol.LaunchData)
}

// StatusListener is told when the engine connection comes up or goes away.
type StatusListener interface {
	ServerAlive(alive bool)
}

// StatusFunc adapts a function to StatusListener.
type StatusFunc func(alive bool)

// ServerAlive implements StatusListener.
func (f StatusFunc) ServerAlive(alive bool) { f(alive) }

// BaseListener implements Listener with no-op methods. Embed it to handle only
// the notifications you care about.
type BaseListener struct{}

var _ Listener = BaseListener{}

func (BaseListener) ServerConnected(protocol.ServerConnected) {}
func (BaseListener) ServerStatus(protocol.ServerStatus) {}
func (BaseListener) ServerError(protocol.ServerError) {}
func (BaseListener) ServerCrashReport(protocol.ServerError) {}
func (BaseListener) ServerIncompatibleVersion(string) {}
func (BaseListener) RequestError(*protocol.RequestError) {}
func (BaseListener) ComputedAnalyzedFiles([]string) {}
func (BaseListener) ComputedErrors(protocol.FileErrors) {}
func (BaseListener) FlushedResults([]string) {}
func (BaseListener) ComputedHighlights(protocol.FileHighlights) {}
func (BaseListener) ComputedImplemented(protocol.FileImplemented) {}
func (BaseListener) ComputedNavigation(protocol.FileNavigation) {}
func (BaseListener) ComputedOccurrences(protocol.FileOccurrences) {}
func (BaseListener) ComputedOutline(protocol.FileOutline) {}
func (BaseListener) ComputedOverrides(protocol.FileOverrides) {}
func (BaseListener) ComputedClosingLabels(protocol.FileClosingLabels) {}
func (BaseListener) ComputedCompletion(protocol.CompletionResults) {}
func (BaseListener) ComputedSearchResults(protocol.SearchResults) {}
func (BaseListener) ComputedLaunchData(protocol.LaunchData) {}

// registry holds the registered listeners. Writers replace the slices instead
// of mutating them, so a snapshot taken under the read lock stays valid.
type registry struct {
	log logr.Logger

	mu        sync.RWMutex
	listeners []Listener
	status    []StatusListener
}

func newRegistry(log logr.Logger) *registry {
	return &registry{log: log}
}

func (r *registry) add(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]Listener, len(r.listeners), len(r.listeners)+1)
	copy(next, r.listeners)
	r.listeners = append(next, l)
}

func (r *registry) remove(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]Listener, 0, len(r.listeners))
	for _, existing := range r.listeners {
		if existing != l {
			next = append(next, existing)
		}
	}
	r.listeners = next
}

func (r *registry) addStatus(l StatusListener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]StatusListener, len(r.status), len(r.status)+1)
	copy(next, r.status)
	r.status = append(next, l)
}

func (r *registry) snapshot() []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listeners
}

// broadcast calls fn for every listener in registration order. A panicking
// listener is logged and skipped.
func (r *registry) broadcast(event string, fn func(Listener)) {
	for _, l := range r.snapshot() {
		r.deliver(event, func() { fn(l) })
	}
}

func (r *registry) serverAlive(alive bool) {
	r.mu.RLock()
	status := r.status
	r.mu.RUnlock()

	for _, l := range status {
		r.deliver("serverAlive", func() { l.ServerAlive(alive) })
	}
}

func (r *registry) deliver(event string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error(panicError(p), "Listener panicked", "event", event)
		}
	}()
	fn()
}
