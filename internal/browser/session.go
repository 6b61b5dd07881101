// Package browser drives a web application the way a browser without
// JavaScript would: it keeps history and cookies, follows redirects and
// exposes the current page.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/raysh454/httpbrowser/internal/connector"
	"github.com/raysh454/httpbrowser/internal/logging"
	"github.com/raysh454/httpbrowser/internal/model"
	"github.com/raysh454/httpbrowser/internal/transport"
	"github.com/raysh454/httpbrowser/internal/uri"
)

var (
	// ErrTooManyRedirects is returned when a request keeps redirecting past
	// the configured limit.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrNoPage is returned by page accessors before the first request.
	ErrNoPage = errors.New("no page has been opened yet")

	// ErrEmptySnapshot is returned by LoadSession for a snapshot that did
	// not come from BackupSession.
	ErrEmptySnapshot = errors.New("snapshot holds no session state")
)

// Session is one browser tab. It is not safe for concurrent use.
type Session struct {
	id        string
	cfg       Config
	logger    logging.Logger
	connector *connector.Connector
	history   *History
	jar       *CookieJar
	headers   *model.Headers
}

// New validates cfg, prepares the connector and applies configured cookies.
func New(cfg Config, logger logging.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	logger = logging.OrNop(logger).With(logging.String("component", "browser"), logging.String("session", id))

	s := &Session{
		id:      id,
		logger:  logger,
		history: NewHistory(),
		jar:     NewCookieJar(),
		headers: model.NewHeaders(),
	}
	if err := s.prepare(cfg); err != nil {
		return nil, err
	}

	host := ""
	if u, err := url.Parse(cfg.URL); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	for _, c := range cfg.Cookies {
		s.SetCookie(model.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   firstNonEmpty(c.Domain, host),
			Path:     firstNonEmpty(c.Path, "/"),
			Secure:   c.Secure,
			HostOnly: c.Domain == "",
		})
	}
	return s, nil
}

func (s *Session) prepare(cfg Config) error {
	cc := cfg.connectorConfig()
	named, err := transport.NamedMiddleware(cfg.MiddlewareNames, s.logger)
	if err != nil {
		return &connector.ConfigurationError{Field: "middleware", Reason: "unsupported middleware", Err: err}
	}
	cc.Middleware = append(append([]transport.Middleware(nil), cfg.Middleware...), named...)

	conn, err := connector.New(cc, s.logger)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.connector = conn
	s.logger.Debug("session prepared", logging.String("url", cfg.URL))
	return nil
}

// ID returns the session id used in log lines.
func (s *Session) ID() string { return s.id }

// Config returns the active configuration.
func (s *Session) Config() Config { return s.cfg }

// Connector returns the connector serving the session.
func (s *Session) Connector() *connector.Connector { return s.connector }

// History returns the navigation history.
func (s *Session) History() *History { return s.history }

// CookieJar returns the cookie jar.
func (s *Session) CookieJar() *CookieJar { return s.jar }

// Reconfigure applies fn to a copy of the configuration and rebuilds the
// connector. History, cookies and session headers are kept. On error the
// session is unchanged.
func (s *Session) Reconfigure(fn func(*Config)) error {
	cfg := s.cfg
	fn(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.prepare(cfg)
}

// SetFollowRedirects turns automatic redirect following on or off.
func (s *Session) SetFollowRedirects(follow bool) {
	s.cfg.FollowRedirects = follow
}

// SetMaxRedirects changes the redirect limit.
func (s *Session) SetMaxRedirects(n int) {
	s.cfg.MaxRedirects = n
}

// Request sends method to target and follows redirects when enabled.
// Session headers are added unless the request sets the same header.
func (s *Session) Request(ctx context.Context, method, target string, opts ...model.RequestOption) (*model.Response, error) {
	req := model.NewRequest(method, target, opts...)
	s.headers.Each(func(name, value string) {
		if _, ok := req.Header(name); !ok {
			req.Server.Set(model.ServerKey(name), value)
		}
	})

	resp, err := s.send(ctx, req)
	if err != nil {
		return nil, err
	}

	for hops := 0; s.cfg.FollowRedirects && resp.IsRedirect(); hops++ {
		if hops >= s.cfg.MaxRedirects {
			return resp, fmt.Errorf("%w: stopped after %d at %s", ErrTooManyRedirects, hops, resp.Location())
		}
		req = redirectRequest(req, resp)
		if resp, err = s.send(ctx, req); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (s *Session) send(ctx context.Context, req *model.Request) (*model.Response, error) {
	resp, err := s.connector.Execute(ctx, req, s.history, s.jar)
	if err != nil {
		return nil, err
	}
	visited := req.Clone()
	visited.URI = resp.URI
	s.history.Add(visited, resp)
	s.jar.UpdateFromResponse(resp.Headers, resp.URI)

	s.logger.Debug("page loaded",
		logging.String("method", req.Method),
		logging.String("uri", resp.URI),
		logging.Field{Key: "status", Value: resp.Status})
	return resp, nil
}

// redirectRequest builds the follow-up request for a redirect answer.
// 301, 302 and 303 become a plain GET; 307 and 308 repeat the request.
func redirectRequest(prev *model.Request, resp *model.Response) *model.Request {
	next := prev.Clone()
	next.URI = uri.MergeURLs(resp.URI, resp.Location())
	next.Server.Del(model.ServerKey("If-None-Match"))
	next.Server.Del(model.ServerKey("If-Modified-Since"))

	switch resp.Status {
	case 301, 302, 303:
		next.Method = "GET"
		next.Files = nil
		next.Content = nil
		next.HasContent = false
		next.Server.Del("CONTENT_TYPE")
		next.Server.Del("CONTENT_LENGTH")
		next.Server.Del(model.ServerKey("Content-Type"))
	}
	if next.Method == "GET" {
		next.Parameters = nil
	}
	return next
}

// AmOnPage opens page relative to the configured URL.
func (s *Session) AmOnPage(ctx context.Context, page string) (*model.Response, error) {
	return s.Request(ctx, "GET", page)
}

// AmOnURL switches the session to the host of rawURL and opens its page.
func (s *Session) AmOnURL(ctx context.Context, rawURL string) (*model.Response, error) {
	host, err := uri.RetrieveHost(rawURL)
	if err != nil {
		return nil, err
	}
	page := uri.Path(rawURL)
	if err := s.Reconfigure(func(c *Config) { c.URL = host }); err != nil {
		return nil, err
	}
	s.logger.Debug("switched host", logging.String("host", host))
	return s.AmOnPage(ctx, page)
}

// AmOnSubdomain replaces the subdomain of the configured URL. The next page
// opened goes to the new host.
func (s *Session) AmOnSubdomain(subdomain string) error {
	target := uri.SwapSubdomain(s.cfg.URL, subdomain)
	return s.Reconfigure(func(c *Config) { c.URL = target })
}

// Response returns the current page.
func (s *Session) Response() (*model.Response, error) {
	_, resp := s.history.Current()
	if resp == nil {
		return nil, ErrNoPage
	}
	return resp, nil
}

// CurrentURL returns the absolute URL of the current page.
func (s *Session) CurrentURL() (string, error) {
	current, _ := s.history.Current()
	if current == "" {
		return "", ErrNoPage
	}
	return current, nil
}

// CurrentURI returns path, query and fragment of the current page.
func (s *Session) CurrentURI() (string, error) {
	current, err := s.CurrentURL()
	if err != nil {
		return "", err
	}
	return uri.Path(current), nil
}

// GrabFromCurrentURL returns the current URI, or the first capture group of
// pattern matched against it (the whole match when pattern has no group).
func (s *Session) GrabFromCurrentURL(pattern string) (string, error) {
	current, err := s.CurrentURI()
	if err != nil || pattern == "" {
		return current, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("compile pattern: %w", err)
	}
	m := re.FindStringSubmatch(current)
	if m == nil {
		return "", fmt.Errorf("pattern %q does not match %q", pattern, current)
	}
	if len(m) > 1 {
		return m[1], nil
	}
	return m[0], nil
}

// HaveHTTPHeader sets a header sent with every following request. An empty
// value removes it.
func (s *Session) HaveHTTPHeader(name, value string) {
	if value == "" {
		s.headers.Del(name)
		return
	}
	s.headers.Set(name, value)
}

// DeleteHeader removes a session header.
func (s *Session) DeleteHeader(name string) {
	s.headers.Del(name)
}

// Headers returns a copy of the session headers.
func (s *Session) Headers() *model.Headers {
	return s.headers.Clone()
}

// AmHTTPAuthenticated sends basic credentials with every following request.
func (s *Session) AmHTTPAuthenticated(username, password string) error {
	return s.connector.SetAuth(username, password, "basic")
}

// SetCookie stores a cookie.
func (s *Session) SetCookie(c model.Cookie) {
	s.jar.Set(c)
}

// GrabCookie returns the named cookie.
func (s *Session) GrabCookie(name string) (model.Cookie, bool) {
	return s.jar.Get(name, "", "")
}

// ResetCookie removes the named cookie.
func (s *Session) ResetCookie(name string) {
	s.jar.Expire(name, "", "")
}

// Snapshot is a saved session state.
type Snapshot struct {
	cfg       Config
	connector *connector.Connector
	history   *History
	jar       *CookieJar
	headers   *model.Headers
}

// BackupSession captures the current state. Later changes to the session do
// not affect the snapshot.
func (s *Session) BackupSession() Snapshot {
	return Snapshot{
		cfg:       s.cfg,
		connector: s.connector,
		history:   s.history.Clone(),
		jar:       s.jar.Clone(),
		headers:   s.headers.Clone(),
	}
}

// LoadSession restores a snapshot taken by BackupSession. The snapshot stays
// reusable. A zero Snapshot leaves the session untouched and returns
// ErrEmptySnapshot.
func (s *Session) LoadSession(snap Snapshot) error {
	if snap.connector == nil || snap.history == nil || snap.jar == nil {
		return ErrEmptySnapshot
	}
	s.cfg = snap.cfg
	s.connector = snap.connector
	s.history = snap.history.Clone()
	s.jar = snap.jar.Clone()
	s.headers = snap.headers.Clone()
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
