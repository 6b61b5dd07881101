package transport_test

import (
	"errors"
	"net/http"
	"slices"
	"testing"

	"github.com/raysh454/httpbrowser/internal/logging"
	"github.com/raysh454/httpbrowser/internal/transport"
)

// noopLogger is a test-local logger implementation that records warnings only.
type noopLogger struct {
	warnings []string
}

func (n *noopLogger) Debug(msg string, fields ...logging.Field) {}
func (n *noopLogger) Info(msg string, fields ...logging.Field)  {}
func (n *noopLogger) Warn(msg string, fields ...logging.Field) {
	n.warnings = append(n.warnings, msg)
}
func (n *noopLogger) Error(msg string, fields ...logging.Field) {}
func (n *noopLogger) With(fields ...logging.Field) logging.Logger {
	return n
}

// TestNewHandler_DefaultHandler verifies that an empty name builds the pooled handler
func TestNewHandler_DefaultHandler(t *testing.T) {
	t.Parallel()
	rt, err := transport.NewHandler(transport.Config{VerifyTLS: true}, &noopLogger{})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	tr, ok := rt.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", rt)
	}
	if tr.DisableKeepAlives {
		t.Error("default handler must keep connections alive")
	}
	if tr.TLSClientConfig == nil || tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("expected TLS verification on")
	}
}

// TestNewHandler_Stream verifies that the stream handler never pools connections
func TestNewHandler_Stream(t *testing.T) {
	t.Parallel()
	rt, err := transport.NewHandler(transport.Config{Handler: "STREAM"}, &noopLogger{})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	tr, ok := rt.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", rt)
	}
	if !tr.DisableKeepAlives {
		t.Error("stream handler must disable keep-alives")
	}
	if !tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("VerifyTLS=false should skip verification")
	}
}

// TestNewHandler_CurlOptions verifies that curl options tune the pooled transport
func TestNewHandler_CurlOptions(t *testing.T) {
	t.Parallel()
	cfg := transport.Config{
		Handler: transport.HandlerCurl,
		Options: map[string]any{
			"max_idle_conns":      7,
			"disable_compression": true,
			"http2":               false,
			"unknown_option":      "ignored",
		},
	}
	rt, err := transport.NewHandler(cfg, &noopLogger{})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	tr := rt.(*http.Transport)
	if tr.MaxIdleConns != 7 {
		t.Errorf("MaxIdleConns = %d, want 7", tr.MaxIdleConns)
	}
	if !tr.DisableCompression {
		t.Error("expected compression disabled")
	}
}

// TestNewHandler_BadProxy verifies that an unparsable proxy is a construction error
func TestNewHandler_BadProxy(t *testing.T) {
	t.Parallel()
	cfg := transport.Config{Options: map[string]any{"proxy": "://nope"}}
	if _, err := transport.NewHandler(cfg, &noopLogger{}); err == nil {
		t.Fatal("expected error for malformed proxy")
	}
}

// TestNewHandler_UnknownFallsBack verifies that unknown names use the default with a warning
func TestNewHandler_UnknownFallsBack(t *testing.T) {
	t.Parallel()
	logger := &noopLogger{}
	rt, err := transport.NewHandler(transport.Config{Handler: "does-not-exist"}, logger)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	if _, ok := rt.(*http.Transport); !ok {
		t.Fatalf("expected default *http.Transport, got %T", rt)
	}
	if len(logger.warnings) != 1 {
		t.Fatalf("expected one warning, got %v", logger.warnings)
	}
}

// TestNewHandler_SuppliedTransport verifies that a caller supplied round tripper is used as is
func TestNewHandler_SuppliedTransport(t *testing.T) {
	t.Parallel()
	custom := transport.RoundTripperFunc(func(*http.Request) (*http.Response, error) { return nil, nil })
	rt, err := transport.NewHandler(transport.Config{Handler: "stream", Transport: custom}, nil)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	if _, ok := rt.(transport.RoundTripperFunc); !ok {
		t.Fatalf("expected supplied round tripper, got %T", rt)
	}
}

// TestNewHandler_Factory verifies factory invocation and error propagation
func TestNewHandler_Factory(t *testing.T) {
	t.Parallel()
	called := false
	cfg := transport.Config{Factory: func(c transport.Config, _ logging.Logger) (http.RoundTripper, error) {
		called = true
		return http.DefaultTransport, nil
	}}
	if _, err := transport.NewHandler(cfg, nil); err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	if !called {
		t.Error("factory was not called")
	}

	boom := errors.New("boom")
	cfg.Factory = func(transport.Config, logging.Logger) (http.RoundTripper, error) { return nil, boom }
	if _, err := transport.NewHandler(cfg, nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped factory error, got %v", err)
	}

	cfg.Factory = func(transport.Config, logging.Logger) (http.RoundTripper, error) { return nil, nil }
	if _, err := transport.NewHandler(cfg, nil); err == nil {
		t.Fatal("expected error for nil round tripper")
	}
}

// TestRegisterHandler verifies that registered names are listed and constructed
func TestRegisterHandler(t *testing.T) {
	t.Parallel()
	transport.RegisterHandler("Recording", func(transport.Config, logging.Logger) (http.RoundTripper, error) {
		return transport.RoundTripperFunc(func(*http.Request) (*http.Response, error) { return nil, nil }), nil
	})
	transport.RegisterHandler("", nil)

	names := transport.ListHandlers()
	for _, want := range []string{"curl", "recording", "retry", "stream"} {
		if !slices.Contains(names, want) {
			t.Errorf("ListHandlers() = %v, missing %q", names, want)
		}
	}

	rt, err := transport.NewHandler(transport.Config{Handler: "recording"}, nil)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	if _, ok := rt.(transport.RoundTripperFunc); !ok {
		t.Fatalf("expected registered handler, got %T", rt)
	}
}
