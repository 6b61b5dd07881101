package transport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/raysh454/httpbrowser/internal/logging"
)

func newCurlHandler(cfg Config, logger logging.Logger) (http.RoundTripper, error) {
	t, err := newPooledTransport(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create pooled transport: %w", err)
	}
	logger.Debug("created curl handler",
		logging.Field{Key: "verify_tls", Value: cfg.VerifyTLS},
		logging.Field{Key: "max_idle_conns", Value: t.MaxIdleConns})
	return t, nil
}

func newStreamHandler(cfg Config, logger logging.Logger) (http.RoundTripper, error) {
	logger.Debug("created stream handler", logging.Field{Key: "verify_tls", Value: cfg.VerifyTLS})
	return newStreamingTransport(cfg), nil
}

// newRetryHandler retries connection failures and 5xx answers.
func newRetryHandler(cfg Config, logger logging.Logger) (http.RoundTripper, error) {
	t, err := newPooledTransport(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create pooled transport: %w", err)
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Transport = t
	rc.RetryMax = cfg.intOption("retry_max", 3)
	rc.RetryWaitMin = cfg.durationOption("retry_wait_min", 100*time.Millisecond)
	rc.RetryWaitMax = cfg.durationOption("retry_wait_max", 2*time.Second)
	rc.ErrorHandler = lastResponse
	rc.Logger = nil
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			logger.Debug("retrying request",
				logging.String("method", req.Method),
				logging.String("url", req.URL.String()),
				logging.Field{Key: "attempt", Value: attempt})
		}
	}

	logger.Debug("created retry handler", logging.Field{Key: "retry_max", Value: rc.RetryMax})
	return &retryablehttp.RoundTripper{Client: rc}, nil
}

// lastResponse hands back the final answer once retries run out; only a
// missing response is an error.
func lastResponse(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, err
}
