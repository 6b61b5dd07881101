package transport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/raysh454/httpbrowser/internal/logging"
)

// Middleware names understood by NamedMiddleware.
const (
	MiddlewareHTTPErrors = "http_errors"
	MiddlewareRateLimit  = "rate_limit"
	MiddlewareLogging    = "logging"
	MiddlewareDecompress = "decompress"
	MiddlewareMetrics    = "metrics"
)

// DefaultRateLimit is the requests per second of a bare "rate_limit".
const DefaultRateLimit = 10.0

// ErrUnknownMiddleware is returned for a middleware name that is not built in.
var ErrUnknownMiddleware = errors.New("unknown middleware")

type namedSpec struct {
	name string
	rps  float64
}

// parseMiddlewareName accepts any case and dashes for underscores. Only
// rate_limit takes an argument: "rate_limit:5" admits five requests per
// second.
func parseMiddlewareName(raw string) (namedSpec, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(raw), ":")
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	spec := namedSpec{name: name}

	switch name {
	case MiddlewareRateLimit:
		spec.rps = DefaultRateLimit
		if hasArg {
			rps, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
			if err != nil || rps <= 0 {
				return spec, fmt.Errorf("%s: requests per second must be a positive number, got %q", name, arg)
			}
			spec.rps = rps
		}
		return spec, nil
	case MiddlewareHTTPErrors, MiddlewareLogging, MiddlewareDecompress, MiddlewareMetrics:
		if hasArg {
			return spec, fmt.Errorf("%s takes no argument", name)
		}
		return spec, nil
	}
	return spec, fmt.Errorf("%w %q", ErrUnknownMiddleware, raw)
}

// CheckMiddlewareNames reports the first name NamedMiddleware would reject.
func CheckMiddlewareNames(names []string) error {
	for _, n := range names {
		if _, err := parseMiddlewareName(n); err != nil {
			return err
		}
	}
	return nil
}

// NamedMiddleware builds the built-in middleware listed in names, first
// entry outermost. metrics registers on prometheus.DefaultRegisterer.
func NamedMiddleware(names []string, logger logging.Logger) ([]Middleware, error) {
	logger = logging.OrNop(logger)
	out := make([]Middleware, 0, len(names))
	for _, n := range names {
		spec, err := parseMiddlewareName(n)
		if err != nil {
			return nil, err
		}
		switch spec.name {
		case MiddlewareHTTPErrors:
			out = append(out, HTTPErrors())
		case MiddlewareRateLimit:
			out = append(out, RateLimit(rate.NewLimiter(rate.Limit(spec.rps), 1)))
		case MiddlewareLogging:
			out = append(out, Logging(logger))
		case MiddlewareDecompress:
			out = append(out, Decompress())
		case MiddlewareMetrics:
			m, err := NewMetrics(prometheus.DefaultRegisterer)
			if err != nil {
				return nil, err
			}
			out = append(out, m.Middleware())
		}
	}
	return out, nil
}
