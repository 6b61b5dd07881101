package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/raysh454/httpbrowser/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStdoutLogger_WritesJSONLines(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewWriterLogger("connector", "debug", &buf)

	l.Info("request sent", logging.String("method", "GET"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v (%q)", err, buf.String())
	}
	if entry["level"] != "info" || entry["msg"] != "request sent" || entry["component"] != "connector" {
		t.Errorf("unexpected entry: %v", entry)
	}
	fields, _ := entry["fields"].(map[string]any)
	if fields["method"] != "GET" {
		t.Errorf("expected method field, got %v", fields)
	}
}

func TestStdoutLogger_MinLevelFilters(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewWriterLogger("", "warn", &buf)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "shown") {
		t.Errorf("expected only the warn entry, got %q", buf.String())
	}
}

func TestStdoutLogger_WithKeepsFieldsAndComponent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewWriterLogger("root", "debug", &buf)

	child := l.With(logging.Field{Key: "component", Value: "transport"}, logging.String("handler", "curl"))
	child.Debug("built")

	out := buf.String()
	if !strings.Contains(out, `"component":"transport"`) || !strings.Contains(out, `"handler":"curl"`) {
		t.Errorf("child fields missing: %s", out)
	}
}

func TestZapLogger_ForwardsFields(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.DebugLevel)
	l := logging.WrapZap(zap.New(core)).With(logging.String("session", "s1"))

	l.Warn("refresh ignored", logging.Field{Key: "interval", Value: 15})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["session"] != "s1" || ctx["interval"] != int64(15) {
		t.Errorf("unexpected context: %v", ctx)
	}
}

func TestNewZapLogger_RejectsBadLevel(t *testing.T) {
	t.Parallel()
	if _, err := logging.NewZapLogger(logging.ZapConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNopLogger(t *testing.T) {
	t.Parallel()
	l := logging.OrNop(nil)
	l.Error("nothing")
	if l.With(logging.String("a", "b")) == nil {
		t.Fatal("With returned nil")
	}
}
