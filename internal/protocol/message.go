package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Request is an outbound call. Params is encoded with encoding/json and omitted
// when nil.
type Request struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// EncodeRequest encodes a request as a single line of JSON without the trailing
// newline.
func EncodeRequest(req Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", req.Method, err)
	}
	return data, nil
}

// ParseLine parses one wire line into a message tree.
func ParseLine(line []byte) (gjson.Result, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return gjson.Result{}, ErrEmptyLine
	}
	if !gjson.ValidBytes(line) {
		return gjson.Result{}, ErrInvalidJSON
	}
	msg := gjson.ParseBytes(line)
	if !msg.IsObject() {
		return gjson.Result{}, ErrNotObject
	}
	return msg, nil
}

// Kind classifies an inbound message.
type Kind int

const (
	// KindInvalid is a message with neither an id nor an event.
	KindInvalid Kind = iota
	// KindResponse is a message with a non-empty id.
	KindResponse
	// KindNotification is a message with an event name.
	KindNotification
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindNotification:
		return "notification"
	default:
		return "invalid"
	}
}

// Classify reports whether msg is a response, a notification or neither.
func Classify(msg gjson.Result) Kind {
	if id := msg.Get("id"); id.Exists() && id.String() != "" {
		return KindResponse
	}
	if ev := msg.Get("event"); ev.Type == gjson.String && ev.Str != "" {
		return KindNotification
	}
	return KindInvalid
}

// ErrorResponse builds a response message that carries a local error for the
// request with the given id.
func ErrorResponse(id, code, message string) gjson.Result {
	raw, _ := sjson.Set("", "id", id)
	raw, _ = sjson.Set(raw, "error.code", code)
	raw, _ = sjson.Set(raw, "error.message", message)
	return gjson.Parse(raw)
}
