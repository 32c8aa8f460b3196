package remote

import (
	"github.com/dshills/anaclient/internal/protocol"
)

// Every request method returns the id the request was sent with, or "" when
// the connection is closed; in that case the callback is never called.
// Callbacks run on the worker goroutine and may be nil.

// ServerGetVersion asks for the engine's protocol version.
func (c *Client) ServerGetVersion(cb func(version string, err *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodServerGetVersion, nil, protocol.DecodeVersionResult, cb)
}

// ServerSetSubscriptions replaces the server-wide notification subscriptions.
func (c *Client) ServerSetSubscriptions(subscriptions []string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodServerSetSubscriptions, protocol.SubscriptionsParams(subscriptions), cb)
}

// ServerCancelRequest asks the engine to cancel the request with the given id.
func (c *Client) ServerCancelRequest(id string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodServerCancelRequest, protocol.IDParams(id), cb)
}

// DiagnosticGetServerPort asks for the port of the engine's diagnostic
// server, starting it if needed.
func (c *Client) DiagnosticGetServerPort(cb func(port int, err *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodDiagnosticGetServerPort, nil, protocol.DecodeServerPortResult, cb)
}

// AnalyticsEnable turns analytics reporting on or off.
func (c *Client) AnalyticsEnable(value bool, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodAnalyticsEnable, protocol.ValueParams(value), cb)
}

// AnalyticsIsEnabled asks whether analytics reporting is on.
func (c *Client) AnalyticsIsEnabled(cb func(enabled bool, err *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodAnalyticsIsEnabled, nil, protocol.DecodeAnalyticsEnabledResult, cb)
}

// AnalyticsSendEvent reports a user action.
func (c *Client) AnalyticsSendEvent(action string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodAnalyticsSendEvent, protocol.ActionParams(action), cb)
}

// AnalyticsSendTiming reports how long event took.
func (c *Client) AnalyticsSendTiming(event string, millis int64, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodAnalyticsSendTiming, protocol.TimingParams(event, millis), cb)
}
