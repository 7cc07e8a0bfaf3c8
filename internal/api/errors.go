package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies failures of a backend call.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindMalformed
	KindHTTP
	KindApplication
)

var (
	// ErrRejected matches HTTP error statuses and 200 responses carrying an
	// error field alike.
	ErrRejected    = errors.New("request rejected by backend")
	ErrUnavailable = errors.New("backend unavailable")
	ErrMalformed   = errors.New("malformed backend response")
	ErrNotFound    = errors.New("not found")
)

// Error is returned by every Client method that talks to the backend.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		return "cannot connect to backend"
	case KindMalformed:
		return "invalid JSON response"
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrRejected:
		return e.Kind == KindHTTP || e.Kind == KindApplication
	case ErrUnavailable:
		return e.Kind == KindNetwork
	case ErrMalformed:
		return e.Kind == KindMalformed
	}
	return false
}

// Message returns the text that should be shown to a user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

func httpError(op string, status int, body []byte) *Error {
	msg := extractMessage(body)
	if msg == "" {
		text := http.StatusText(status)
		if text == "" {
			text = "unexpected status"
		}
		msg = fmt.Sprintf("request failed: %d %s", status, text)
	}
	return &Error{Kind: KindHTTP, Op: op, Status: status, Message: msg}
}

// extractMessage pulls error/message/detail out of a JSON object body.
func extractMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "message", "detail"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// applicationError reports the error field of a successful response, if any.
func applicationError(body []byte) string {
	if len(body) == 0 || body[0] != '{' {
		return ""
	}
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Error, &s); err != nil {
		if string(payload.Error) == "null" {
			return ""
		}
		return string(payload.Error)
	}
	return strings.TrimSpace(s)
}
