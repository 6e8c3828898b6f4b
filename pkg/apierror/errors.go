// Package apierror describes failed calls to the tournament backend: either a
// non-2xx response or a transport failure with no response at all.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is returned for every failed backend call. StatusCode is zero when no
// response was received.
type Error struct {
	StatusCode int    `json:"status"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Message    string `json:"message"`
	Body       []byte `json:"-"`
	Cause      error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: network error", e.Method, e.Path)
	}
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsTransport reports whether the call never got a response.
func (e *Error) IsTransport() bool {
	return e.StatusCode == 0
}

func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// FromResponse builds an Error from a non-2xx response, preferring the
// server-provided detail message.
func FromResponse(method, path string, status int, body []byte) *Error {
	msg := ExtractMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("request failed with status code %d", status)
	}
	return &Error{
		StatusCode: status,
		Method:     method,
		Path:       path,
		Message:    msg,
		Body:       body,
	}
}

// Transport wraps a failure that produced no response.
func Transport(method, path string, err error) *Error {
	msg := "network error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Method:  method,
		Path:    path,
		Message: msg,
		Cause:   err,
	}
}

// ExtractMessage pulls a human-readable message out of an error body. It
// understands FastAPI's {"detail": "..."} and {"detail": [{"msg": "..."}]}
// shapes as well as {"message": "..."} and {"error": "..."}.
func ExtractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		if msg := messageFrom(raw); msg != "" {
			return msg
		}
	}
	return ""
}

func messageFrom(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
