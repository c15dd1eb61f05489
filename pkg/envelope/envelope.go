package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
)

// FallbackMessage is returned when no better error message can be found.
const FallbackMessage = "An unexpected error occurred"

// Result is the normalized form of a single response.
type Result struct {
	OK      bool
	Data    json.RawMessage
	Message string
}

// Responder is implemented by transport errors that carry the raw
// response body returned by the backend.
type Responder interface {
	ResponseBody() []byte
}

// Messenger is implemented by errors that carry a message meant for
// the end user rather than for logs.
type Messenger interface {
	UserMessage() string
}

// FailureError is returned by the decode helpers when the backend
// answered with an envelope whose success flag is false.
type FailureError struct {
	Message string
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	if e.Message == "" {
		return FallbackMessage
	}
	return e.Message
}

// UserMessage implements Messenger.
func (e *FailureError) UserMessage() string {
	return e.Message
}

var emptyArray = json.RawMessage("[]")

// ExtractData returns the payload of a response body.
//
// An object carrying both "success" and "data" keys is treated as an
// envelope: its data is returned unless success is literally false, in
// which case nil is returned and the caller must take the error path.
// Anything else is returned unchanged. Empty and null bodies yield nil.
func ExtractData(body []byte) json.RawMessage {
	if isNull(body) {
		return nil
	}

	// TODO: drop the bare-shape branch once every endpoint responds enveloped.
	obj, ok := parseObject(body)
	if !ok {
		return json.RawMessage(body)
	}

	success, hasSuccess := obj["success"]
	data, hasData := obj["data"]
	if !hasSuccess || !hasData {
		return json.RawMessage(body)
	}

	if isFalse(success) || isNull(data) {
		return nil
	}
	return data
}

// IsErrorResponse reports whether body is an envelope with success set
// to false.
func IsErrorResponse(body []byte) bool {
	obj, ok := parseObject(body)
	if !ok {
		return false
	}
	success, has := obj["success"]
	return has && isFalse(success)
}

// Message returns the "message" field of an object body, or "".
func Message(body []byte) string {
	obj, ok := parseObject(body)
	if !ok {
		return ""
	}
	raw, has := obj["message"]
	if !has {
		return ""
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ""
	}
	return msg
}

// Parse normalizes a successful-status body into a Result.
func Parse(body []byte) Result {
	if IsErrorResponse(body) {
		msg := Message(body)
		if msg == "" {
			msg = FallbackMessage
		}
		return Result{OK: false, Message: msg}
	}
	return Result{OK: true, Data: ExtractData(body)}
}

// ExtractErrorMessage returns the most useful message for err.
//
// The backend message carried by a transport error wins, then a user
// message attached to the error, then err.Error(). FallbackMessage is
// returned when none of them is available.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return FallbackMessage
	}

	var responder Responder
	if errors.As(err, &responder) {
		if msg := Message(responder.ResponseBody()); msg != "" {
			return msg
		}
	}

	var messenger Messenger
	if errors.As(err, &messenger) {
		if msg := messenger.UserMessage(); msg != "" {
			return msg
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}

// EnsureArray returns value unchanged when it is a JSON array and an
// empty array for anything else, including null and objects.
func EnsureArray(value json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] != '[' || !json.Valid(trimmed) {
		return emptyArray
	}
	return value
}

// EnsureSlice returns s, or an empty non-nil slice when s is nil.
func EnsureSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Decode extracts the payload of body and unmarshals it into T.
// A failed envelope yields a *FailureError. A null payload yields the
// zero value.
func Decode[T any](body []byte) (T, error) {
	var v T
	if IsErrorResponse(body) {
		return v, &FailureError{Message: Message(body)}
	}

	data := ExtractData(body)
	if data == nil {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	return v, nil
}

// DecodeList extracts the payload of body as a list of T. Payloads that
// are not arrays decode to an empty slice.
func DecodeList[T any](body []byte) ([]T, error) {
	if IsErrorResponse(body) {
		return nil, &FailureError{Message: Message(body)}
	}

	var items []T
	if err := json.Unmarshal(EnsureArray(ExtractData(body)), &items); err != nil {
		return nil, err
	}
	return EnsureSlice(items), nil
}

func parseObject(body []byte) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func isNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func isFalse(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("false"))
}
