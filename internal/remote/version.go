package remote

import (
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/tidwall/gjson"
	"golang.org/x/mod/semver"

	"github.com/dshills/anaclient/internal/channel"
	"github.com/dshills/anaclient/internal/protocol"
)

type gateState int

const (
	gateHolding gateState = iota
	gateOpen
	gateRejecting
)

// versionGate is a RequestSink that holds requests until the engine's
// version has been checked. server.getVersion and server.shutdown always
// pass. Once rejected, every request fails locally with
// INCOMPATIBLE_SERVER_VERSION, delivered through the stream so the worker
// completes it like any other response.
type versionGate struct {
	next   channel.RequestSink
	stream channel.ResponseStream
	log    logr.Logger

	// mu also orders writes to next, so held requests go out before any
	// request added after open
	mu     sync.Mutex
	state  gateState
	held   []protocol.Request
	reason string
}

var _ channel.RequestSink = (*versionGate)(nil)

func newVersionGate(next channel.RequestSink, stream channel.ResponseStream, log logr.Logger) *versionGate {
	return &versionGate{
		next:   next,
		stream: stream,
		log:    log,
	}
}

// Add implements channel.RequestSink.
func (g *versionGate) Add(req protocol.Request) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == gateOpen || passesGate(req.Method) {
		return g.next.Add(req)
	}
	if g.state == gateRejecting {
		g.rejectLocked(req)
		return nil
	}

	g.log.V(2).Info("Holding request until the engine version is known", "id", req.ID, "method", req.Method)
	g.held = append(g.held, req)
	return nil
}

// Close implements channel.RequestSink. Held requests are dropped; the
// worker abandons them when the stream ends.
func (g *versionGate) Close() error {
	g.mu.Lock()
	g.held = nil
	g.mu.Unlock()
	return g.next.Close()
}

// IsClosed implements channel.RequestSink.
func (g *versionGate) IsClosed() bool {
	return g.next.IsClosed()
}

// open sends the held requests in order and lets later ones through.
func (g *versionGate) open() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != gateHolding {
		return
	}
	g.state = gateOpen

	held := g.held
	g.held = nil
	for _, req := range held {
		if err := g.next.Add(req); err != nil {
			g.log.Error(err, "Sending held request failed", "id", req.ID, "method", req.Method)
		}
	}
}

// reject fails the held requests and every later one with reason.
func (g *versionGate) reject(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == gateRejecting {
		return
	}
	g.state = gateRejecting
	g.reason = reason

	held := g.held
	g.held = nil
	for _, req := range held {
		g.rejectLocked(req)
	}
}

func (g *versionGate) rejectLocked(req protocol.Request) {
	g.log.V(1).Info("Rejecting request to incompatible engine", "id", req.ID, "method", req.Method)
	g.stream.Put(protocol.ErrorResponse(req.ID, protocol.CodeIncompatibleServerVersion, g.reason))
}

func passesGate(method string) bool {
	return method == protocol.MethodServerGetVersion || method == protocol.MethodServerShutdown
}

// checkVersion asks the engine for its version and opens or rejects the gate
// of s. A rejected engine is told to shut down.
func (c *Client) checkVersion(s *session) {
	c.send(s, protocol.MethodServerGetVersion, nil, func(result gjson.Result, rerr *protocol.RequestError) *protocol.RequestError {
		if rerr != nil {
			c.rejectVersion(s, "", "engine did not report its version: "+rerr.Message)
			return rerr
		}

		version, err := protocol.DecodeVersionResult(result)
		if err != nil {
			rerr = protocol.InvalidResponse(err)
			c.rejectVersion(s, "", "engine did not report its version: "+rerr.Message)
			return rerr
		}

		if verr := checkCompatible(version, c.config.MinVersion, c.config.MaxVersion); verr != nil {
			c.rejectVersion(s, version, verr.Error())
			return nil
		}

		c.log.V(1).Info("Engine version accepted", "version", version)
		s.gate.open()
		return nil
	})
}

func (c *Client) rejectVersion(s *session, version, reason string) {
	c.log.Info("Incompatible engine", "version", version, "reason", reason)
	s.gate.reject(reason)
	c.listeners.broadcast("serverIncompatibleVersion", func(l Listener) { l.ServerIncompatibleVersion(version) })
	c.shutdownSession(s, nil)
}

// checkCompatible reports whether version lies in [minVersion, maxVersion).
// An empty bound is not checked.
func checkCompatible(version, minVersion, maxVersion string) *VersionError {
	verr := &VersionError{Version: version, Min: minVersion, Max: maxVersion}

	v := canonicalVersion(version)
	if !semver.IsValid(v) {
		verr.Reason = "not a semantic version"
		return verr
	}
	if minVersion != "" && semver.Compare(v, canonicalVersion(minVersion)) < 0 {
		verr.Reason = "older than " + minVersion
		return verr
	}
	if maxVersion != "" && semver.Compare(v, canonicalVersion(maxVersion)) >= 0 {
		verr.Reason = "not older than " + maxVersion
		return verr
	}
	return nil
}

// canonicalVersion adds the "v" prefix semver expects.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
