package remote

import (
	"github.com/tidwall/gjson"

	"github.com/dshills/anaclient/internal/protocol"
)

// notificationHandler decodes a notification's params and delivers the result
// to every listener.
type notificationHandler func(r *registry, event string, params gjson.Result) error

// route builds a notificationHandler from a decoder and the Listener method
// receiving its result.
func route[T any](decode func(gjson.Result) (T, error), deliver func(Listener, T)) notificationHandler {
	return func(r *registry, event string, params gjson.Result) error {
		v, err := decode(params)
		if err != nil {
			return err
		}
		r.broadcast(event, func(l Listener) { deliver(l, v) })
		return nil
	}
}

var notificationHandlers = map[string]notificationHandler{
	protocol.EventServerConnected: route(protocol.DecodeServerConnected, Listener.ServerConnected),
	protocol.EventServerStatus:    route(protocol.DecodeServerStatus, Listener.ServerStatus),
	protocol.EventServerError:     route(protocol.DecodeServerError, Listener.ServerError),

	protocol.EventAnalysisAnalyzedFiles: route(protocol.DecodeAnalyzedFiles, Listener.ComputedAnalyzedFiles),
	protocol.EventAnalysisClosingLabels: route(protocol.DecodeFileClosingLabels, Listener.ComputedClosingLabels),
	protocol.EventAnalysisErrors:        route(protocol.DecodeFileErrors, Listener.ComputedErrors),
	protocol.EventAnalysisFlushResults:  route(protocol.DecodeFlushResults, Listener.FlushedResults),
	protocol.EventAnalysisHighlights:    route(protocol.DecodeFileHighlights, Listener.ComputedHighlights),
	protocol.EventAnalysisImplemented:   route(protocol.DecodeFileImplemented, Listener.ComputedImplemented),
	protocol.EventAnalysisNavigation:    route(protocol.DecodeFileNavigation, Listener.ComputedNavigation),
	protocol.EventAnalysisOccurrences:   route(protocol.DecodeFileOccurrences, Listener.ComputedOccurrences),
	protocol.EventAnalysisOutline:       route(protocol.DecodeFileOutline, Listener.ComputedOutline),
	protocol.EventAnalysisOverrides:     route(protocol.DecodeFileOverrides, Listener.ComputedOverrides),

	protocol.EventCompletionResults:   route(protocol.DecodeCompletionResults, Listener.ComputedCompletion),
	protocol.EventSearchResults:       route(protocol.DecodeSearchResults, Listener.ComputedSearchResults),
	protocol.EventExecutionLaunchData: route(protocol.DecodeLaunchData, Listener.ComputedLaunchData),
}

// handleNotification routes msg to the listeners. Unknown events are ignored
// and malformed ones are logged and dropped.
func (c *Client) handleNotification(msg gjson.Result) {
	event := msg.Get("event").String()

	h, ok := notificationHandlers[event]
	c.metrics.NotificationReceived(event, ok)
	if !ok {
		c.log.V(1).Info("Ignoring unknown notification", "event", event)
		return
	}

	if err := h(c.listeners, event, msg.Get("params")); err != nil {
		c.log.Info("Dropping malformed notification", "event", event, "error", err.Error())
	}
}
