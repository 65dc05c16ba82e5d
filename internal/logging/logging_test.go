package logging_test

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/raysh454/formfetch/internal/logging"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestStdoutLogger_WritesJSONLines(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := logging.NewWriterLogger("dispatcher", &buf)

	l.Info("sent", logging.Field{Key: "method", Value: "POST"})
	l.Warn("slow")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["level"] != "info" || lines[0]["msg"] != "sent" {
		t.Errorf("unexpected first entry: %v", lines[0])
	}
	if lines[0]["component"] != "dispatcher" {
		t.Errorf("expected component dispatcher, got %v", lines[0]["component"])
	}
	fields, _ := lines[0]["fields"].(map[string]any)
	if fields["method"] != "POST" {
		t.Errorf("expected method field POST, got %v", fields["method"])
	}
	if lines[1]["level"] != "warn" {
		t.Errorf("expected warn, got %v", lines[1]["level"])
	}
}

func TestStdoutLogger_WithCarriesFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	parent := logging.NewWriterLogger("app", &buf)
	child := parent.With(
		logging.Field{Key: "component", Value: "webclient"},
		logging.Field{Key: "backend", Value: "nethttp"},
	)

	child.Debug("created")
	parent.Debug("untouched")

	lines := decodeLines(t, &buf)
	if lines[0]["component"] != "webclient" {
		t.Errorf("expected child component webclient, got %v", lines[0]["component"])
	}
	fields, _ := lines[0]["fields"].(map[string]any)
	if fields["backend"] != "nethttp" {
		t.Errorf("expected persistent backend field, got %v", fields)
	}
	if lines[1]["component"] != "app" {
		t.Errorf("parent component changed: %v", lines[1]["component"])
	}
	if _, ok := lines[1]["fields"]; ok {
		t.Errorf("parent should not carry child fields: %v", lines[1])
	}
}

func TestZapLogger_ForwardsFields(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.DebugLevel)
	l := logging.NewLogrLogger(zapr.NewLogger(zap.New(core)))

	l.With(logging.Field{Key: "component", Value: "server"}).
		Info("http_request", logging.Field{Key: "path", Value: "/dispatch/post"})
	l.Warn("stale", logging.Field{Key: "target", Value: "postResponse"})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].LoggerName != "server" {
		t.Errorf("expected logger name server, got %q", entries[0].LoggerName)
	}
	if entries[0].ContextMap()["path"] != "/dispatch/post" {
		t.Errorf("expected path field, got %v", entries[0].ContextMap())
	}
	if entries[1].ContextMap()["severity"] != "warn" {
		t.Errorf("expected warn marker, got %v", entries[1].ContextMap())
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	t.Parallel()
	if _, err := logging.New("xml", "app", io.Discard); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNew_FormatsWriteToOut(t *testing.T) {
	t.Parallel()
	for _, format := range []string{"json", "zap"} {
		var buf bytes.Buffer
		l, err := logging.New(format, "app", &buf)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		l.Info("hello", logging.Field{Key: "k", Value: "v"})
		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("%s: output is not one JSON line: %q", format, buf.String())
		}
		if entry["msg"] != "hello" {
			t.Errorf("%s: unexpected entry %v", format, entry)
		}
		// The JSON-lines logger nests fields; zap flattens them.
		k := entry["k"]
		if nested, ok := entry["fields"].(map[string]any); ok {
			k = nested["k"]
		}
		if k != "v" {
			t.Errorf("%s: field k missing in %v", format, entry)
		}
	}

	var buf bytes.Buffer
	l, err := logging.New("none", "app", &buf)
	if err != nil {
		t.Fatal(err)
	}
	l.Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("none format wrote %q", buf.String())
	}
}
