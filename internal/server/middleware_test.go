package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if seen == "" {
		t.Fatal("handler must see a request id in its context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("X-Request-ID header = %q, context id = %q", got, seen)
	}
}

func TestGetRequestID_MissingMiddleware(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("expected empty id without middleware, got %q", got)
	}
}

func TestLoggingMiddleware_HandlerFieldsReachCompletionLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddLogField(r.Context(), "operation", "mentorship-guidance")
		AddError(r.Context(), errors.New("backend unreachable"))
		w.WriteHeader(http.StatusBadGateway)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/invoke/mentorship-guidance", nil))

	out := buf.String()
	if !strings.Contains(out, "request completed") {
		t.Fatalf("missing completion line: %s", out)
	}
	if !strings.Contains(out, `"operation":"mentorship-guidance"`) {
		t.Errorf("handler field missing from log: %s", out)
	}
	if !strings.Contains(out, `"error":"backend unreachable"`) {
		t.Errorf("handler error missing from log: %s", out)
	}
	if !strings.Contains(out, `"status":502`) {
		t.Errorf("response status missing from log: %s", out)
	}
}

func TestAddError_NilIsNoop(t *testing.T) {
	fields := make(map[string]string)
	ctx := context.WithValue(context.Background(), logFieldsKey{}, fields)

	AddError(ctx, nil)
	if len(fields) != 0 {
		t.Errorf("nil error must not add fields, got %v", fields)
	}

	AddError(ctx, errors.New("boom"))
	if fields["error"] != "boom" {
		t.Errorf("fields = %v", fields)
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(0, logger)

	// The http.Server exists from construction, so a signal arriving before
	// Start is a clean no-op shutdown.
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown before start: %v", err)
	}
}
