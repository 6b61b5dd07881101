package transport

import (
	"net/http"
	"time"
)

// Handler names shipped with the package.
const (
	HandlerCurl   = "curl"
	HandlerStream = "stream"
	HandlerRetry  = "retry"

	DefaultHandler = HandlerCurl
)

// Config selects and tunes the handler that ends up at the bottom of a Stack.
//
// Precedence when building: Transport, then Factory, then the named Handler.
type Config struct {
	// Handler is a registered handler name. Empty means DefaultHandler.
	Handler string

	// Transport is a caller supplied round tripper used as is.
	Transport http.RoundTripper

	// Factory builds the round tripper on demand.
	Factory HandlerFunc

	// Middleware is pushed onto the stack in order; the first entry sees the
	// request first.
	Middleware []Middleware

	VerifyTLS      bool
	ConnectTimeout time.Duration

	// Options tunes the built-in handlers, e.g. "max_idle_conns",
	// "disable_compression", "http2", "retry_max". Unknown keys are ignored.
	Options map[string]any
}

// DefaultConfig returns the pooled default handler with TLS verification on.
func DefaultConfig() Config {
	return Config{
		Handler:        DefaultHandler,
		VerifyTLS:      true,
		ConnectTimeout: 10 * time.Second,
	}
}

func (c Config) intOption(key string, def int) int {
	switch v := c.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func (c Config) boolOption(key string, def bool) bool {
	if v, ok := c.Options[key].(bool); ok {
		return v
	}
	return def
}

func (c Config) durationOption(key string, def time.Duration) time.Duration {
	switch v := c.Options[key].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
