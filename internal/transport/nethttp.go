package transport

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"

	"github.com/raysh454/httpbrowser/internal/logging"
)

// net/http transports backing the built-in handlers.

func dialer(cfg Config) *net.Dialer {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
}

func tlsConfig(cfg Config) *tls.Config {
	// #nosec G402 -- verification is a user setting
	return &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS}
}

// newPooledTransport builds a keep-alive transport tuned by cfg.Options.
func newPooledTransport(cfg Config, logger logging.Logger) (*http.Transport, error) {
	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer(cfg).DialContext,
		TLSClientConfig:       tlsConfig(cfg),
		MaxIdleConns:          cfg.intOption("max_idle_conns", 100),
		MaxIdleConnsPerHost:   cfg.intOption("max_idle_conns_per_host", 10),
		MaxConnsPerHost:       cfg.intOption("max_conns_per_host", 0),
		IdleConnTimeout:       cfg.durationOption("idle_conn_timeout", 90*time.Second),
		TLSHandshakeTimeout:   cfg.durationOption("tls_handshake_timeout", 10*time.Second),
		ResponseHeaderTimeout: cfg.durationOption("response_header_timeout", 0),
		ExpectContinueTimeout: time.Second,
		DisableCompression:    cfg.boolOption("disable_compression", false),
	}

	if raw, ok := cfg.Options["proxy"].(string); ok && raw != "" {
		proxy, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse proxy: %w", err)
		}
		t.Proxy = http.ProxyURL(proxy)
	}

	if cfg.boolOption("http2", true) {
		if err := http2.ConfigureTransport(t); err != nil {
			logger.Warn("http2 unavailable, using http/1.1", logging.Err(err))
		}
	}
	return t, nil
}

// newStreamingTransport builds a transport that opens a fresh connection per
// request and never pools it.
func newStreamingTransport(cfg Config) *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer(cfg).DialContext,
		TLSClientConfig:     tlsConfig(cfg),
		DisableKeepAlives:   true,
		DisableCompression:  cfg.boolOption("disable_compression", false),
		TLSHandshakeTimeout: cfg.durationOption("tls_handshake_timeout", 10*time.Second),
	}
}
