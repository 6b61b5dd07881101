package browser

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/raysh454/httpbrowser/internal/connector"
	"github.com/raysh454/httpbrowser/internal/signing"
	"github.com/raysh454/httpbrowser/internal/translator"
	"github.com/raysh454/httpbrowser/internal/transport"
)

// DefaultMaxRedirects is the number of redirects followed per request.
const DefaultMaxRedirects = 5

// CookieConfig is a cookie set on the session at startup.
type CookieConfig struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
	Domain string `yaml:"domain"`
	Path   string `yaml:"path"`
	Secure bool   `yaml:"secure"`
}

// AuthConfig holds HTTP credentials. Scheme is "basic" or "bearer".
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Scheme   string `yaml:"scheme"`
}

// Config configures a Session. The yaml keys follow the option names of the
// session file format.
type Config struct {
	URL                string               `yaml:"url"`
	Headers            map[string]string    `yaml:"headers"`
	Cookies            []CookieConfig       `yaml:"cookies"`
	Auth               *AuthConfig          `yaml:"auth"`
	VerifyTLS          bool                 `yaml:"verify"`
	Timeout            time.Duration        `yaml:"timeout"`
	ConnectTimeout     time.Duration        `yaml:"connect_timeout"`
	Handler            string               `yaml:"handler"`
	Curl               map[string]any       `yaml:"curl"`
	RefreshMaxInterval int                  `yaml:"refresh_max_interval"`
	MaxRedirects       int                  `yaml:"max_redirects"`
	FollowRedirects    bool                 `yaml:"follow_redirects"`
	AWS                *signing.Credentials `yaml:"aws"`
	UserAgent          string               `yaml:"user_agent"`

	// MiddlewareNames lists built-in transport middleware by name, first
	// entry outermost. They wrap the handler below Middleware.
	MiddlewareNames []string `yaml:"middleware"`

	// Programmatic only.
	HandlerTransport http.RoundTripper      `yaml:"-"`
	HandlerFunc      transport.HandlerFunc  `yaml:"-"`
	Middleware       []transport.Middleware `yaml:"-"`
}

// DefaultConfig returns the defaults every loaded file is layered on.
func DefaultConfig() Config {
	c := connector.DefaultConfig()
	return Config{
		Timeout:            c.Timeout,
		ConnectTimeout:     c.ConnectTimeout,
		Handler:            c.Handler,
		RefreshMaxInterval: c.RefreshMaxInterval,
		MaxRedirects:       DefaultMaxRedirects,
		FollowRedirects:    true,
		UserAgent:          c.UserAgent,
	}
}

// LoadConfig reads a YAML session file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// envOverlay lists the settings that may come from the environment.
type envOverlay struct {
	URL                *string           `envconfig:"URL"`
	Handler            *string           `envconfig:"HANDLER"`
	Timeout            *time.Duration    `envconfig:"TIMEOUT"`
	VerifyTLS          *bool             `envconfig:"VERIFY"`
	RefreshMaxInterval *int              `envconfig:"REFRESH_MAX_INTERVAL"`
	MaxRedirects       *int              `envconfig:"MAX_REDIRECTS"`
	UserAgent          *string           `envconfig:"USER_AGENT"`
	Headers            map[string]string `envconfig:"HEADERS"`
	Middleware         *[]string         `envconfig:"MIDDLEWARE"`
}

// ConfigFromEnv overlays PREFIX_URL, PREFIX_HANDLER, PREFIX_TIMEOUT,
// PREFIX_VERIFY, PREFIX_REFRESH_MAX_INTERVAL, PREFIX_MAX_REDIRECTS,
// PREFIX_USER_AGENT, PREFIX_HEADERS ("Name:value,Other:value") and
// PREFIX_MIDDLEWARE ("logging,decompress") onto base. An empty
// PREFIX_MIDDLEWARE clears the list.
func ConfigFromEnv(prefix string, base Config) (Config, error) {
	var env envOverlay
	if err := envconfig.Process(prefix, &env); err != nil {
		return base, fmt.Errorf("read environment: %w", err)
	}
	if env.URL != nil {
		base.URL = *env.URL
	}
	if env.Handler != nil {
		base.Handler = *env.Handler
	}
	if env.Timeout != nil {
		base.Timeout = *env.Timeout
	}
	if env.VerifyTLS != nil {
		base.VerifyTLS = *env.VerifyTLS
	}
	if env.RefreshMaxInterval != nil {
		base.RefreshMaxInterval = *env.RefreshMaxInterval
	}
	if env.MaxRedirects != nil {
		base.MaxRedirects = *env.MaxRedirects
	}
	if env.UserAgent != nil {
		base.UserAgent = *env.UserAgent
	}
	if len(env.Headers) > 0 {
		merged := make(map[string]string, len(base.Headers)+len(env.Headers))
		for k, v := range base.Headers {
			merged[k] = v
		}
		for k, v := range env.Headers {
			merged[k] = v
		}
		base.Headers = merged
	}
	if env.Middleware != nil {
		base.MiddlewareNames = *env.Middleware
	}
	return base, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.MaxRedirects < 0 {
		return &connector.ConfigurationError{Field: "max_redirects", Reason: "must not be negative"}
	}
	if err := transport.CheckMiddlewareNames(c.MiddlewareNames); err != nil {
		return &connector.ConfigurationError{Field: "middleware", Reason: "unsupported middleware", Err: err}
	}
	return c.connectorConfig().Validate()
}

func (c Config) connectorConfig() connector.Config {
	cc := connector.Config{
		BaseURL:            c.URL,
		DefaultHeaders:     c.Headers,
		VerifyTLS:          c.VerifyTLS,
		Timeout:            c.Timeout,
		ConnectTimeout:     c.ConnectTimeout,
		Handler:            c.Handler,
		HandlerTransport:   c.HandlerTransport,
		HandlerFunc:        c.HandlerFunc,
		Middleware:         c.Middleware,
		RefreshMaxInterval: c.RefreshMaxInterval,
		CurlOptions:        c.Curl,
		AWSSigning:         c.AWS,
		UserAgent:          c.UserAgent,
	}
	if c.Auth != nil {
		cc.Auth = &translator.Auth{Username: c.Auth.Username, Password: c.Auth.Password, Scheme: c.Auth.Scheme}
	}
	return cc
}
