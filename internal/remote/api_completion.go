package remote

import (
	"github.com/dshills/anaclient/internal/protocol"
)

// CompletionGetSuggestions starts a completion at offset. The callback gets
// the completion id; suggestions arrive later as ComputedCompletion
// notifications carrying that id.
func (c *Client) CompletionGetSuggestions(file string, offset int, cb func(completionID string, err *protocol.RequestError)) string {
	return callDecoded(c, protocol.MethodCompletionGetSuggestions, protocol.FileOffsetParams(file, offset), protocol.DecodeCompletionID, cb)
}

// CompletionSetSubscriptions replaces the completion subscriptions.
func (c *Client) CompletionSetSubscriptions(subscriptions []string, cb func(*protocol.RequestError)) string {
	return callNoResult(c, protocol.MethodCompletionSetSubscriptions, protocol.SubscriptionsParams(subscriptions), cb)
}
