package model

import (
	"net/http"
	"strings"
	"time"
)

// ServerHeaderPrefix marks request headers stored as server variables.
const ServerHeaderPrefix = "HTTP_"

// Request is the abstract browser request handed to the connector. Build it
// with NewRequest and treat it as immutable afterwards.
type Request struct {
	Method string
	URI    string
	// Server holds server-variable style entries: HTTP_X_FOO for request
	// headers, CONTENT_TYPE and friends for content headers.
	Server     *Headers
	Parameters Params
	Files      Files
	// Content is the raw body; HasContent distinguishes an empty body from
	// no body at all.
	Content    []byte
	HasContent bool
}

// RequestOption customizes a Request under construction.
type RequestOption func(*Request)

// NewRequest builds a Request.
func NewRequest(method, uri string, opts ...RequestOption) *Request {
	r := &Request{
		Method: strings.ToUpper(method),
		URI:    uri,
		Server: NewHeaders(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithHeader stores a request header under its server-variable key.
func WithHeader(name, value string) RequestOption {
	return func(r *Request) { r.Server.Set(ServerKey(name), value) }
}

// WithServer stores a raw server variable.
func WithServer(key, value string) RequestOption {
	return func(r *Request) { r.Server.Set(key, value) }
}

// WithParams sets the form parameters.
func WithParams(ps Params) RequestOption {
	return func(r *Request) { r.Parameters = ps }
}

// WithFiles sets the uploaded files.
func WithFiles(fs Files) RequestOption {
	return func(r *Request) { r.Files = fs }
}

// WithContent sets a raw body.
func WithContent(body []byte) RequestOption {
	return func(r *Request) {
		r.Content = body
		r.HasContent = true
	}
}

// ServerKey converts a header name to its server-variable key:
// "Content-Type" becomes "HTTP_CONTENT_TYPE".
func ServerKey(name string) string {
	return ServerHeaderPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Header returns the request header stored under name.
func (r *Request) Header(name string) (string, bool) {
	return r.Server.Get(ServerKey(name))
}

// Clone returns a copy that shares no mutable state with r.
func (r *Request) Clone() *Request {
	c := *r
	c.Server = r.Server.Clone()
	c.Parameters = append(Params(nil), r.Parameters...)
	c.Files = append(Files(nil), r.Files...)
	if r.Content != nil {
		c.Content = append([]byte(nil), r.Content...)
	}
	return &c
}

// Response is the canonical, normalized response returned by the connector.
type Response struct {
	URI       string
	Status    int
	Headers   http.Header
	Body      []byte
	FetchedAt time.Time
}

// Header returns the first value of name.
func (r *Response) Header(name string) string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return r.Headers.Get(name)
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// Location returns the Location header.
func (r *Response) Location() string {
	return r.Header("Location")
}

// IsRedirect reports a 3xx response that names a Location.
func (r *Response) IsRedirect() bool {
	return r != nil && r.Status >= 300 && r.Status < 400 && r.Location() != ""
}
