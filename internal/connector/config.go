package connector

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/httpbrowser/internal/signing"
	"github.com/raysh454/httpbrowser/internal/translator"
	"github.com/raysh454/httpbrowser/internal/transport"
)

// DefaultUserAgent is sent unless a request or default header overrides it.
const DefaultUserAgent = "httpbrowser/1.0"

// DefaultRefreshMaxInterval is the largest refresh delay, in seconds, that is
// still treated as a redirect.
const DefaultRefreshMaxInterval = 10

// Config configures a Connector.
type Config struct {
	// BaseURL is the root every relative request is resolved against. Required.
	BaseURL string

	// DefaultHeaders are sent with every request; request headers win.
	DefaultHeaders map[string]string

	VerifyTLS      bool
	Timeout        time.Duration
	ConnectTimeout time.Duration

	// Handler names a registered transport handler ("curl", "stream", "retry").
	Handler string
	// HandlerTransport replaces the named handler.
	HandlerTransport http.RoundTripper
	// HandlerFunc builds the handler; it is used when HandlerTransport is nil.
	HandlerFunc transport.HandlerFunc
	// Middleware wraps the handler, first entry outermost.
	Middleware []transport.Middleware

	// RefreshMaxInterval bounds which refresh delays become redirects.
	RefreshMaxInterval int

	// CurlOptions tunes the built-in handlers.
	CurlOptions map[string]any

	Auth       *translator.Auth
	AWSSigning *signing.Credentials

	UserAgent string
}

// DefaultConfig returns the configuration used when a field is left unset.
func DefaultConfig() Config {
	return Config{
		Timeout:            30 * time.Second,
		ConnectTimeout:     10 * time.Second,
		Handler:            transport.DefaultHandler,
		RefreshMaxInterval: DefaultRefreshMaxInterval,
		UserAgent:          DefaultUserAgent,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return &ConfigurationError{Field: "url", Reason: "base url is required"}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return &ConfigurationError{Field: "url", Reason: "unparsable base url", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return &ConfigurationError{Field: "url", Reason: "base url must be absolute"}
	}
	if c.Timeout < 0 {
		return &ConfigurationError{Field: "timeout", Reason: "must not be negative"}
	}
	if c.ConnectTimeout < 0 {
		return &ConfigurationError{Field: "connect_timeout", Reason: "must not be negative"}
	}
	if c.RefreshMaxInterval < 0 {
		return &ConfigurationError{Field: "refresh_max_interval", Reason: "must not be negative"}
	}
	if c.Auth != nil {
		switch strings.ToLower(c.Auth.Scheme) {
		case "", "basic", "bearer":
		default:
			return &ConfigurationError{Field: "auth", Reason: "unsupported scheme " + c.Auth.Scheme}
		}
	}
	if c.AWSSigning != nil {
		if _, err := signing.New(*c.AWSSigning); err != nil {
			return &ConfigurationError{Field: "aws", Reason: "incomplete credentials", Err: err}
		}
	}
	return nil
}

func (c Config) transportConfig() transport.Config {
	return transport.Config{
		Handler:        c.Handler,
		Transport:      c.HandlerTransport,
		Factory:        c.HandlerFunc,
		Middleware:     c.Middleware,
		VerifyTLS:      c.VerifyTLS,
		ConnectTimeout: c.ConnectTimeout,
		Options:        c.CurlOptions,
	}
}
