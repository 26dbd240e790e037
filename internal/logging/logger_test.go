package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSetupLevels(t *testing.T) {
	var buf bytes.Buffer
	Setup("warn", "json", &buf)
	defer Setup("", "", &buf)

	Logger.Info("hidden")
	Logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatal("info line logged at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Fatal("warn line missing")
	}
}

func TestMiddlewareInjectsTraceID(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "" {
		t.Fatal("no trace ID injected")
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "caller-supplied" {
		t.Fatalf("trace ID = %q, want caller-supplied", seen)
	}
}

func TestFromContextCarriesTraceID(t *testing.T) {
	var buf bytes.Buffer
	Setup("info", "json", &buf)
	defer Setup("", "", &buf)

	ctx := WithTraceID(context.Background(), "trace-123")
	FromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), "trace-123") {
		t.Fatalf("log line missing trace ID: %s", buf.String())
	}
}
