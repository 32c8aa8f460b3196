package protocol

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Errors returned while reading lines from the wire.
var (
	// ErrEmptyLine indicates a blank line.
	ErrEmptyLine = errors.New("empty line")

	// ErrInvalidJSON indicates a line that is not valid JSON.
	ErrInvalidJSON = errors.New("invalid json")

	// ErrNotObject indicates a line that is valid JSON but not an object.
	ErrNotObject = errors.New("message is not a json object")
)

// Error codes produced locally by the client. Codes reported by the engine are
// passed through verbatim and are not listed here.
const (
	// CodeInvalidServerResponse is used when a response cannot be decoded.
	CodeInvalidServerResponse = "INVALID_SERVER_RESPONSE"

	// CodeIncompatibleServerVersion is used for requests refused because the
	// engine's protocol version is outside the supported range.
	CodeIncompatibleServerVersion = "INCOMPATIBLE_SERVER_VERSION"

	// CodeServerTerminated is used for calls abandoned when the engine stops.
	CodeServerTerminated = "SERVER_TERMINATED"
)

// Error codes the engine is known to send.
const (
	CodeContentModified  = "CONTENT_MODIFIED"
	CodeFileNotAnalyzed  = "FILE_NOT_ANALYZED"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeServerError      = "SERVER_ERROR"
	CodeUnknownRequest   = "UNKNOWN_REQUEST"
)

// RequestError is the failure outcome of a call. It is either copied from the
// error member of a response or synthesised locally.
type RequestError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StackTrace string `json:"stackTrace,omitempty"`
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is a RequestError with the same code.
func (e *RequestError) Is(target error) bool {
	var t *RequestError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// DecodeRequestError copies the error member of a response. A member that
// ParseRequestError refuses is reported as INVALID_SERVER_RESPONSE.
func DecodeRequestError(v gjson.Result) *RequestError {
	rerr, err := ParseRequestError(v)
	if err != nil {
		return InvalidResponse(err)
	}
	return rerr
}

// ParseRequestError reads the error member of a response. The member must be
// an object with a string code; message and stackTrace are optional.
func ParseRequestError(v gjson.Result) (*RequestError, error) {
	if !v.IsObject() {
		return nil, &FieldError{Field: "error", Want: "object"}
	}
	if v.Get("code").Type != gjson.String {
		return nil, &FieldError{Field: "error.code", Want: "string"}
	}
	return &RequestError{
		Code:       v.Get("code").String(),
		Message:    v.Get("message").String(),
		StackTrace: v.Get("stackTrace").String(),
	}, nil
}

// HasError reports whether the error member of a response is present. A null
// member counts as absent.
func HasError(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// InvalidResponse builds the error reported when a response fails to decode.
func InvalidResponse(err error) *RequestError {
	return &RequestError{
		Code:    CodeInvalidServerResponse,
		Message: err.Error(),
	}
}

// FieldError names a required field that is absent or has the wrong type.
type FieldError struct {
	Field string
	Want  string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: expected %s", e.Field, e.Want)
}
