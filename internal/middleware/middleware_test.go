package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowgrid/flowgrid/internal/middleware"
)

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	handler := middleware.CORS("http://localhost:5173, http://example.com")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Errorf("allow-origin = %q, want the request origin echoed", got)
	}
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	handler := middleware.CORS("http://localhost:5173")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q, want empty for unknown origin", got)
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	called := false
	handler := middleware.CORS("http://localhost:5173")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }),
	)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
	if called {
		t.Error("preflight must not reach the wrapped handler")
	}
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	handler := middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}
