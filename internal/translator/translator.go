// Package translator turns abstract browser requests into wire requests and
// per-request transport options.
package translator

import (
	"net/url"
	"strings"

	"github.com/raysh454/httpbrowser/internal/interfaces"
	"github.com/raysh454/httpbrowser/internal/model"
)

// Auth holds credentials applied by the transport.
type Auth struct {
	Username string
	Password string
	// Scheme is "basic" or "bearer". Bearer sends Password as the token.
	Scheme string
}

// Wire is the request as it goes on the wire, minus the form or multipart
// body which the transport encodes from Options.
type Wire struct {
	Method  string
	URL     string
	Headers *model.Headers
	Body    []byte
	HasBody bool
}

// Host returns the host name of the target URL.
func (w *Wire) Host() string {
	u, err := url.Parse(w.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Options is the per-request transport configuration.
type Options struct {
	// AllowRedirects is always false: redirects are followed by the caller.
	AllowRedirects bool
	Cookies        *Jar
	Multipart      []Part
	FormParams     model.Params
	Auth           *Auth
}

// Defaults is the persistent configuration merged into every request.
type Defaults struct {
	Headers *model.Headers
	Auth    *Auth
}

// Translate builds the wire request and options for req. req.URI must be
// absolute. Request headers override persistent defaults of the same name.
func Translate(req *model.Request, cookies interfaces.CookieStore, defaults Defaults) (*Wire, *Options, error) {
	headers := model.NewHeaders()
	if defaults.Headers != nil {
		headers.Merge(defaults.Headers)
	}
	extracted := ExtractHeaders(req.Server)
	headers.Merge(extracted)

	wire := &Wire{
		Method:  strings.ToUpper(req.Method),
		URL:     req.URI,
		Headers: headers,
	}
	opts := &Options{
		AllowRedirects: false,
		Cookies:        ExtractCookies(cookies, wire.Host()),
	}
	if defaults.Auth != nil {
		a := *defaults.Auth
		opts.Auth = &a
	}

	multipart, err := MultipartData(req)
	if err != nil {
		return nil, nil, err
	}
	if len(multipart) > 0 {
		opts.Multipart = multipart
		return wire, opts, nil
	}

	if form, ok := FormData(req, extracted); ok && len(form) > 0 {
		opts.FormParams = form
		return wire, opts, nil
	}

	if !methodIn(wire.Method, "POST", "PUT", "PATCH", "DELETE") && len(req.Parameters) > 0 {
		wire.URL = appendQuery(wire.URL, req.Parameters.Encode())
	}

	if req.HasContent {
		wire.Body = req.Content
		wire.HasBody = true
	}
	return wire, opts, nil
}

func appendQuery(raw, query string) string {
	if query == "" {
		return raw
	}
	fragment := ""
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw, fragment = raw[:i], raw[i:]
	}
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + query + fragment
}
