package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddleware_ReusesCallerID(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if seen != "req-123" {
		t.Errorf("Context request id = %q, want req-123", seen)
	}
	if got := rec.Header().Get(HeaderRequestID); got != "req-123" {
		t.Errorf("Echoed header = %q, want req-123", got)
	}
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("Missing header must produce a generated request id")
	}
	if got := rec.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("Header %q does not match context id %q", got, seen)
	}
}
