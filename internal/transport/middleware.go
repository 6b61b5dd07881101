package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/raysh454/httpbrowser/internal/logging"
)

// RequestIDHeader carries the id assigned by Logging.
const RequestIDHeader = "X-Request-Id"

// HTTPErrors turns 4xx and 5xx answers into a *StatusError that still holds
// the response.
func HTTPErrors() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil || resp.StatusCode < http.StatusBadRequest {
				return resp, err
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("read error response: %w", err)
			}
			return nil, &StatusError{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: body}
		})
	}
}

// RateLimit delays each request until the limiter admits it.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
			return next.RoundTrip(req)
		})
	}
}

// Logging logs every exchange with a generated request id, which is also sent
// as X-Request-Id unless the request already has one.
func Logging(logger logging.Logger) Middleware {
	logger = logging.OrNop(logger)
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			id := req.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
				req = req.Clone(req.Context())
				req.Header.Set(RequestIDHeader, id)
			}
			l := logger.With(logging.String("request_id", id))

			start := time.Now()
			l.Debug("sending http request",
				logging.String("method", req.Method),
				logging.String("url", req.URL.String()))

			resp, err := next.RoundTrip(req)
			elapsed := time.Since(start).String()
			if err != nil {
				l.Warn("http request failed",
					logging.String("method", req.Method),
					logging.String("url", req.URL.String()),
					logging.String("elapsed", elapsed),
					logging.Err(err))
				return nil, err
			}
			l.Info("http response",
				logging.String("method", req.Method),
				logging.String("url", req.URL.String()),
				logging.Field{Key: "status", Value: resp.StatusCode},
				logging.String("elapsed", elapsed))
			return resp, nil
		})
	}
}

// Decompress advertises gzip, deflate and zstd and decodes bodies that come
// back with one of those encodings.
func Decompress() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Accept-Encoding") == "" {
				req = req.Clone(req.Context())
				req.Header.Set("Accept-Encoding", "gzip, deflate, zstd")
			}
			resp, err := next.RoundTrip(req)
			if err != nil {
				return nil, err
			}
			enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
			if enc == "" || enc == "identity" {
				return resp, nil
			}

			raw, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read encoded body: %w", err)
			}
			body, err := decode(enc, raw)
			if errors.Is(err, errUnknownEncoding) {
				resp.Body = io.NopCloser(bytes.NewReader(raw))
				return resp, nil
			}
			if err != nil {
				return nil, fmt.Errorf("decode %s body: %w", enc, err)
			}

			resp.Header.Del("Content-Encoding")
			resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
			resp.ContentLength = int64(len(body))
			resp.Uncompressed = true
			resp.Body = io.NopCloser(bytes.NewReader(body))
			return resp, nil
		})
	}
}

var errUnknownEncoding = errors.New("unknown content encoding")

func decode(enc string, raw []byte) ([]byte, error) {
	switch enc {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "deflate":
		// Servers disagree on whether deflate means zlib framing or a raw stream.
		if r, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
			defer r.Close()
			return io.ReadAll(r)
		}
		r := flate.NewReader(bytes.NewReader(raw))
		defer r.Close()
		return io.ReadAll(r)
	case "zstd":
		d, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return d.DecodeAll(raw, nil)
	}
	return nil, errUnknownEncoding
}

// Metrics counts requests and observes their latency.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. Registering twice on the same
// registry reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "httpbrowser",
		Name:      "requests_total",
		Help:      "HTTP requests sent by the browser, by method and status code.",
	}, []string{"method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "httpbrowser",
		Name:      "request_duration_seconds",
		Help:      "Round trip latency of browser requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{requests: requests, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metrics: %w", err)
	}
	return c, nil
}

// Middleware records every round trip. Transport failures are counted with
// code "error".
func (m *Metrics) Middleware() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			m.duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

			code := "error"
			var se *StatusError
			switch {
			case err == nil:
				code = strconv.Itoa(resp.StatusCode)
			case errors.As(err, &se):
				code = strconv.Itoa(se.Status)
			}
			m.requests.WithLabelValues(req.Method, code).Inc()
			return resp, err
		})
	}
}
