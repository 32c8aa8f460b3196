// Package protocol defines the wire model spoken between the client and a remote
// analysis engine.
//
// Every message is a single line of UTF-8 JSON. Outbound requests are plain Go
// values encoded with encoding/json; inbound messages are kept as gjson.Result
// trees so that lookups of absent or mistyped fields never panic.
//
// # Message kinds
//
//   - Request: {"id": "0", "method": "analysis.getErrors", "params": {...}}
//   - Response: {"id": "0", "result": {...}} or {"id": "0", "error": {...}}
//   - Notification: {"event": "analysis.errors", "params": {...}}
//
// A response carrying neither result nor error is an empty-result success.
//
// # Decoding
//
// Decoders in this package are total: they either return a fully populated value
// or an error naming the first missing or mistyped required field. Callers turn
// that error into an INVALID_SERVER_RESPONSE request error.
package protocol
