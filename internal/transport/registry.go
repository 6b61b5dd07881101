package transport

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/raysh454/httpbrowser/internal/logging"
)

// HandlerFunc constructs the bottom round tripper of a stack from the config.
type HandlerFunc func(cfg Config, logger logging.Logger) (http.RoundTripper, error)

var (
	mu       sync.RWMutex
	registry = map[string]HandlerFunc{}
)

func init() {
	RegisterHandler(HandlerCurl, newCurlHandler)
	RegisterHandler(HandlerStream, newStreamHandler)
	RegisterHandler(HandlerRetry, newRetryHandler)
}

// RegisterHandler registers a named handler constructor. Name is lower-cased
// internally. Calling RegisterHandler with the same name overwrites the
// previous constructor.
func RegisterHandler(name string, ctor HandlerFunc) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// NewHandler constructs the bottom handler described by cfg. Unknown handler
// names fall back to DefaultHandler with a warning.
func NewHandler(cfg Config, logger logging.Logger) (http.RoundTripper, error) {
	logger = logging.OrNop(logger)

	if cfg.Transport != nil {
		return cfg.Transport, nil
	}
	if cfg.Factory != nil {
		rt, err := cfg.Factory(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("handler factory: %w", err)
		}
		if rt == nil {
			return nil, errors.New("handler factory returned nil")
		}
		return rt, nil
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Handler))
	if name == "" {
		name = DefaultHandler
	}

	mu.RLock()
	ctor, ok := registry[name]
	if !ok {
		ctor = registry[DefaultHandler]
	}
	mu.RUnlock()
	if !ok {
		logger.Warn("unknown handler, using default",
			logging.String("handler", name),
			logging.Field{Key: "available", Value: ListHandlers()})
		name = DefaultHandler
	}

	rt, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct handler %q: %w", name, err)
	}
	if rt == nil {
		return nil, fmt.Errorf("handler %q constructor returned nil", name)
	}
	return rt, nil
}

// ListHandlers returns the sorted list of registered handler names.
func ListHandlers() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
