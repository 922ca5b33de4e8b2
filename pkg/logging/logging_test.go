package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.With("component", "explorer").WithGroup("lens").Info("view rendered",
		"nodes", 12, "filter", "citation", "name", "Ada Lovelace", "durationMs", int64(7))

	line := buf.String()
	for _, want := range []string{
		"[INFO]  ",
		"view rendered |",
		"component=explorer",
		"lens.nodes=12",
		"lens.filter=citation",
		`lens.name="Ada Lovelace"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Error("Expected a trailing newline")
	}
}

func TestCompactHandlerSpecialKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, nil))

	log.Warn("api call failed", "requestID", "0123456789abcdef", "durationMs", 15, "error", "boom")

	line := buf.String()
	for _, want := range []string{"[WARN]  ", "req=01234567 ", "duration=15ms", `error="boom"`} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}
}

func TestCompactHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.Error("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "[ERROR]") {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		verbosity string
		count     int
		want      slog.Level
		wantErr   bool
	}{
		{"", 0, slog.LevelInfo, false},
		{"", 1, slog.LevelDebug, false},
		{"", 3, LevelTrace, false},
		{"WARN", 2, slog.LevelWarn, false},
		{"debug", 0, slog.LevelDebug, false},
		{"loud", 0, slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.verbosity, tt.count)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q, %d) = %v, %v", tt.verbosity, tt.count, got, err)
		}
	}
}

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Configure(&buf, slog.LevelInfo, "json"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	t.Cleanup(func() { Configure(&bytes.Buffer{}, slog.LevelInfo, "compact") })

	InfoContext(WithRequestID(context.Background(), "abc"), "hello", "n", 1)

	if !strings.Contains(buf.String(), `"requestID":"abc"`) || !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("Unexpected JSON log %q", buf.String())
	}

	if err := Configure(&buf, slog.LevelInfo, "xml"); err == nil {
		t.Error("Expected unknown format to be rejected")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	Configure(&bytes.Buffer{}, slog.LevelInfo, "compact")

	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/explorer", nil)
	req.Header.Set("X-Request-ID", "given-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "given-id" || rec.Header().Get("X-Request-ID") != "given-id" {
		t.Errorf("Expected the incoming request id to be kept, got %q / %q", seen, rec.Header().Get("X-Request-ID"))
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected status to pass through, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.Header().Get("X-Request-ID")) != 36 {
		t.Errorf("Expected a generated uuid, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestTimeFormat(t *testing.T) {
	var buf bytes.Buffer
	h := NewCompactHandler(&buf, nil)
	r := slog.NewRecord(time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC), slog.LevelInfo, "tick", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if buf.String() != "[INFO]  13:04:05 tick\n" {
		t.Errorf("Unexpected line %q", buf.String())
	}
}
