// Package connector executes browser requests over HTTP and normalizes the
// answers into canonical responses.
package connector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/raysh454/httpbrowser/internal/interfaces"
	"github.com/raysh454/httpbrowser/internal/logging"
	"github.com/raysh454/httpbrowser/internal/model"
	"github.com/raysh454/httpbrowser/internal/signing"
	"github.com/raysh454/httpbrowser/internal/translator"
	"github.com/raysh454/httpbrowser/internal/transport"
	"github.com/raysh454/httpbrowser/internal/uri"
)

// Connector turns model.Requests into HTTP exchanges. It never follows
// redirects and never keeps cookies of its own; both belong to the caller's
// history and cookie store.
type Connector struct {
	mu      sync.RWMutex
	cfg     Config
	logger  logging.Logger
	client  *resty.Client
	signer  *signing.Signer
	headers *model.Headers
	auth    *translator.Auth
	refresh int
}

var _ interfaces.Executor = (*Connector)(nil)

// New validates cfg and builds a Connector.
func New(cfg Config, logger logging.Logger) (*Connector, error) {
	c := &Connector{logger: logging.OrNop(logger).With(logging.String("component", "connector"))}
	if err := c.Configure(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure replaces the transport handle and all persistent settings.
func (c *Connector) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	rt, err := transport.Build(cfg.transportConfig(), c.logger)
	if err != nil {
		return &ConfigurationError{Field: "handler", Reason: "cannot build transport", Err: err}
	}

	var signer *signing.Signer
	if cfg.AWSSigning != nil {
		if signer, err = signing.New(*cfg.AWSSigning); err != nil {
			return &ConfigurationError{Field: "aws", Reason: "incomplete credentials", Err: err}
		}
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	client := resty.New().
		SetTransport(rt).
		SetTimeout(cfg.Timeout).
		SetCookieJar(nil).
		SetAllowGetMethodPayload(true).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		})).
		SetLogger(restyLogger{c.logger}).
		SetHeader("User-Agent", ua)
	if signer != nil {
		client.SetPreRequestHook(func(_ *resty.Client, req *http.Request) error {
			return signer.Sign(req.Context(), req)
		})
	}

	var auth *translator.Auth
	if cfg.Auth != nil && cfg.Auth.Username != "" {
		a := *cfg.Auth
		auth = &a
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	c.client = client
	c.signer = signer
	c.headers = model.HeadersFromMap(cfg.DefaultHeaders)
	c.auth = auth
	c.refresh = cfg.RefreshMaxInterval

	c.logger.Debug("connector configured",
		logging.String("base_url", cfg.BaseURL),
		logging.String("handler", cfg.Handler),
		logging.Field{Key: "middleware", Value: len(cfg.Middleware)})
	return nil
}

// Config returns the configuration of the current handle.
func (c *Connector) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// BaseURL returns the configured base URL.
func (c *Connector) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.BaseURL
}

// Resolve makes target absolute against the base URL and history.
func (c *Connector) Resolve(target string, history interfaces.History) string {
	return uri.Resolver{Base: c.BaseURL()}.Resolve(target, history)
}

// SetHeader sets a persistent header. An empty value deletes it.
func (c *Connector) SetHeader(name, value string) {
	if value == "" {
		c.DeleteHeader(name)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Set(name, value)
}

// DeleteHeader removes a persistent header.
func (c *Connector) DeleteHeader(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers.Del(name)
}

// Headers returns a copy of the persistent headers.
func (c *Connector) Headers() *model.Headers {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Clone()
}

// SetAuth sets credentials for every following request. An empty username
// clears them. scheme is "basic" (the default) or "bearer".
func (c *Connector) SetAuth(username, password, scheme string) error {
	scheme = strings.ToLower(scheme)
	switch scheme {
	case "":
		scheme = "basic"
	case "basic", "bearer":
	default:
		return &ConfigurationError{Field: "auth", Reason: "unsupported scheme " + scheme}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if username == "" {
		c.auth = nil
		return nil
	}
	c.auth = &translator.Auth{Username: username, Password: password, Scheme: scheme}
	return nil
}

// SetRefreshMaxInterval changes the refresh delay limit in seconds.
func (c *Connector) SetRefreshMaxInterval(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh = seconds
}

// Execute resolves, translates and sends req, then normalizes the answer.
// HTTP error statuses come back as responses; only exchanges that produced
// no response at all fail with *TransportError.
func (c *Connector) Execute(ctx context.Context, req *model.Request, history interfaces.History, cookies interfaces.CookieStore) (*model.Response, error) {
	c.mu.RLock()
	client := c.client
	base := c.cfg.BaseURL
	defaults := translator.Defaults{Headers: c.headers.Clone(), Auth: c.auth}
	refresh := c.refresh
	c.mu.RUnlock()

	resolver := uri.Resolver{Base: base}
	r := req.Clone()
	r.URI = resolver.Resolve(req.URI, history)

	wire, opts, err := translator.Translate(r, cookies, defaults)
	if err != nil {
		return nil, fmt.Errorf("translate %s %s: %w", r.Method, r.URI, err)
	}

	status, header, body, err := c.send(ctx, client, wire, opts)
	if err != nil {
		return nil, err
	}

	pending := pendingHistory{uri: wire.URL}
	n := Normalizer{
		RefreshMaxInterval: refresh,
		Resolve:            func(target string) string { return resolver.Resolve(target, pending) },
	}
	resp := n.Normalize(body, status, header, wire.URL)
	if resp.Status != status {
		c.logger.Debug("refresh rewritten as redirect",
			logging.String("uri", wire.URL),
			logging.String("location", resp.Location()))
	}
	return resp, nil
}

func (c *Connector) send(ctx context.Context, client *resty.Client, wire *translator.Wire, opts *translator.Options) (int, http.Header, []byte, error) {
	r := client.R().SetContext(ctx)
	r.SetHeaderMultiValues(wire.Headers.HTTPHeader())

	if u, err := url.Parse(wire.URL); err == nil {
		r.SetCookies(opts.Cookies.Cookies(u))
	}

	switch {
	case len(opts.Multipart) > 0:
		fields := make([]*resty.MultipartField, 0, len(opts.Multipart))
		for _, p := range opts.Multipart {
			fields = append(fields, &resty.MultipartField{
				Param:       p.Name,
				FileName:    p.Filename,
				ContentType: p.ContentType,
				Reader:      bytes.NewReader(p.Contents),
			})
		}
		r.SetMultipartFields(fields...)
	case len(opts.FormParams) > 0:
		r.SetHeader("Content-Type", translator.FormURLEncoded)
		r.SetBody(opts.FormParams.Encode())
	case wire.HasBody:
		r.SetBody(wire.Body)
	}

	if a := opts.Auth; a != nil {
		if a.Scheme == "bearer" {
			r.SetAuthToken(a.Password)
		} else {
			r.SetBasicAuth(a.Username, a.Password)
		}
	}

	resp, err := r.Execute(wire.Method, wire.URL)
	if err != nil {
		var se *transport.StatusError
		if errors.As(err, &se) {
			return se.Status, se.Header, se.Body, nil
		}
		c.logger.Warn("http request failed",
			logging.String("method", wire.Method),
			logging.String("url", wire.URL),
			logging.Err(err))
		return 0, nil, nil, &TransportError{Method: wire.Method, URI: wire.URL, Err: err}
	}
	return resp.StatusCode(), resp.Header(), resp.Body(), nil
}

// pendingHistory presents the request in flight as the current page.
type pendingHistory struct {
	uri string
}

func (p pendingHistory) IsEmpty() bool { return false }

func (p pendingHistory) Current() (string, *model.Response) { return p.uri, nil }

type restyLogger struct {
	l logging.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) { r.l.Error(fmt.Sprintf(format, v...)) }
func (r restyLogger) Warnf(format string, v ...interface{})  { r.l.Warn(fmt.Sprintf(format, v...)) }
func (r restyLogger) Debugf(format string, v ...interface{}) { r.l.Debug(fmt.Sprintf(format, v...)) }
