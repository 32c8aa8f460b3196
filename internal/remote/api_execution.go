package remote

import (
	"github.com/dshills/anaclient/internal/protocol"
)

// ExecutionCreateContext creates an execution context rooted at contextRoot.
func (c *Client) ExecutionCreateContext(contextRoot string, cb func(contextID string, err *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodExecutionCreateContext, protocol.ContextRootParams(contextRoot), protocol.DecodeContextIDResult, cb)
}

func (c *Client) ExecutionDeleteContext(contextID string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodExecutionDeleteContext, protocol.IDParams(contextID), cb)
}

// ExecutionMapURI maps a file to a URI or a URI to a file within a context.
// Pass exactly one of file and uri.
func (c *Client) ExecutionMapURI(contextID, file, uri string, cb func(protocol.MapURIResult, *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodExecutionMapURI, protocol.MapURIParams(contextID, file, uri), protocol.DecodeMapURIResult, cb)
}

func (c *Client) ExecutionSetSubscriptions(subscriptions []string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodExecutionSetSubscriptions, protocol.SubscriptionsParams(subscriptions), cb)
}
