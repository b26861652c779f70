package daemon

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCorrelationIDMiddleware_GeneratesID(t *testing.T) {
	var seen string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Error("expected a generated correlation ID in context")
	}
	if got := rec.Header().Get(CorrelationIDHeader); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
}

func TestCorrelationIDMiddleware_PropagatesID(t *testing.T) {
	var seen string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "req-42")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "req-42" {
		t.Errorf("correlation ID = %q, want req-42", seen)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}

func TestGetCorrelationID_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetCorrelationID(req.Context()); id != "" {
		t.Errorf("GetCorrelationID() = %q, want empty", id)
	}
}
