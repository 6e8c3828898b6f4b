package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one logical call. Body is JSON-encoded once and the same
// bytes are sent again if the call is replayed after a refresh.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	Header http.Header

	// NoRetry excludes the call from the refresh cycle; a 401 is returned
	// to the caller as is.
	NoRetry bool
}

// Response is a successful (2xx) backend reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v interface{}) error {
	if r == nil || len(r.Body) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Raw returns the body as json.RawMessage, or JSON null when empty.
func (r *Response) Raw() json.RawMessage {
	if r == nil || len(r.Body) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(r.Body)
}

// dispatch is one transmission of a Request. attempt is 1 for the original
// send and 2 for the single replay; it is copied, never shared.
type dispatch struct {
	req           *Request
	body          []byte
	correlationID string
	attempt       int
}

func (d dispatch) replay() dispatch {
	d.attempt++
	return d
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return raw, nil
}

// normalizePath strips the query and trailing slash so /auth/login/ and
// /auth/login?x=1 classify the same way.
func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

var publicPaths = map[string]struct{}{
	PathLogin:    {},
	PathRegister: {},
	PathRefresh:  {},
}

// IsPublic reports whether path establishes or replaces a credential and
// must therefore never carry one.
func IsPublic(path string) bool {
	_, ok := publicPaths[normalizePath(path)]
	return ok
}

// IsAdmin reports whether path is under /admin.
func IsAdmin(path string) bool {
	p := normalizePath(path)
	return p == adminPrefix || strings.HasPrefix(p, adminPrefix+"/")
}
