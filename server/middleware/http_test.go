package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/server/middleware"
)

// ---------------------------------------------------------------------------
// Recovery
// ---------------------------------------------------------------------------

func TestRecovery_NoPanic(t *testing.T) {
	log := logger.NewDefault("test")
	handler := middleware.Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRecovery_Panic(t *testing.T) {
	log := logger.NewDefault("test")
	handler := middleware.Recovery(log)(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("test panic")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Fatalf("unexpected error message: %s", body["error"])
	}
}

// ---------------------------------------------------------------------------
// RequestID
// ---------------------------------------------------------------------------

func TestRequestID_GeneratesID(t *testing.T) {
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handler should see the generated ID in request headers
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("expected X-Request-Id in request headers")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id in response headers")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set("X-Request-Id", "custom-id-123")
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-Id"); got != "custom-id-123" {
		t.Fatalf("expected custom-id-123, got %s", got)
	}
}

// ---------------------------------------------------------------------------
// CORS
// ---------------------------------------------------------------------------

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         middleware.CORSConfig
		method      string
		origin      string
		wantCode    int
		wantOrigin  string
		wantMethods string
		wantCreds   string
	}{
		{
			name:        "allowed origin",
			cfg:         middleware.CORSConfig{AllowedOrigins: []string{"https://example.com"}, AllowedMethods: []string{"GET", "POST"}},
			method:      "GET",
			origin:      "https://example.com",
			wantCode:    http.StatusOK,
			wantOrigin:  "https://example.com",
			wantMethods: "GET, POST",
		},
		{
			name:     "disallowed origin",
			cfg:      middleware.CORSConfig{AllowedOrigins: []string{"https://allowed.com"}},
			method:   "GET",
			origin:   "https://evil.com",
			wantCode: http.StatusOK,
		},
		{
			name:       "wildcard with credentials",
			cfg:        middleware.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
			method:     "GET",
			origin:     "https://app.example.com",
			wantCode:   http.StatusOK,
			wantOrigin: "https://app.example.com",
			wantCreds:  "true",
		},
		{
			name:       "preflight",
			cfg:        middleware.CORSConfig{AllowedOrigins: []string{"*"}},
			method:     "OPTIONS",
			origin:     "https://app.example.com",
			wantCode:   http.StatusNoContent,
			wantOrigin: "https://app.example.com",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			handler := middleware.CORS(&tc.cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, "/api/v1/users", http.NoBody)
			req.Header.Set("Origin", tc.origin)
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Errorf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			if called == (tc.method == "OPTIONS") {
				t.Errorf("handler called=%v for %s", called, tc.method)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Errorf("allow origin: expected %q, got %q", tc.wantOrigin, got)
			}
			if got := rr.Header().Get("Access-Control-Allow-Methods"); got != tc.wantMethods {
				t.Errorf("allow methods: expected %q, got %q", tc.wantMethods, got)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != tc.wantCreds {
				t.Errorf("allow credentials: expected %q, got %q", tc.wantCreds, got)
			}
			if rr.Header().Get("Vary") != "Origin" {
				t.Error("expected Vary: Origin")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// RequestLogger
// ---------------------------------------------------------------------------

func TestRequestLogger_LogsRequest(t *testing.T) {
	log := logger.NewDefault("test")
	handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/users", http.NoBody))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
}

func TestRequestLogger_SkipsAdmin(t *testing.T) {
	log := logger.NewDefault("test")
	called := false
	handler := middleware.RequestLogger(log, "/admin")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/admin/health", http.NoBody))

	if !called {
		t.Error("handler should still be called for admin endpoints")
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// BodySizeLimit
// ---------------------------------------------------------------------------

func TestBodySizeLimit_AppliesLimit(t *testing.T) {
	handler := middleware.BodySizeLimit("1KB")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/upload", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestBodySizeLimit_RejectsLargeBody(t *testing.T) {
	var readErr error
	handler := middleware.BodySizeLimit("1KB")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	body := strings.NewReader(strings.Repeat("x", 2048))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/upload", body))

	if readErr == nil {
		t.Fatal("expected read error for oversized body")
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 7},
		{"512", 512},
		{"1KB", 1024},
		{"10mb", 10 << 20},
		{"2 GB", 2 << 30},
		{"lots", 7},
		{"-5KB", 7},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := middleware.ParseSize(tc.in, 7); got != tc.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Chain
// ---------------------------------------------------------------------------

func TestChain_Order(t *testing.T) {
	var order []string

	m1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m1-before")
			next.ServeHTTP(w, r)
			order = append(order, "m1-after")
		})
	}
	m2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m2-before")
			next.ServeHTTP(w, r)
			order = append(order, "m2-after")
		})
	}

	chain := middleware.Chain(m1, m2)
	handler := chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	expected := []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(order), order)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("position %d: expected %s, got %s (full: %v)", i, v, order[i], order)
		}
	}
}

// ---------------------------------------------------------------------------
// recorder: Flush support
// ---------------------------------------------------------------------------

type flushRecorder struct {
	http.ResponseWriter
	flushed bool
}

func (f *flushRecorder) Flush() { f.flushed = true }

func TestRequestLogger_Flush(t *testing.T) {
	fr := &flushRecorder{ResponseWriter: httptest.NewRecorder()}

	log := logger.NewDefault("test")
	handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(fr, httptest.NewRequest("GET", "/stream", http.NoBody))

	if !fr.flushed {
		t.Error("expected Flush to be delegated to underlying writer")
	}
}

// ---------------------------------------------------------------------------
// GinWrap
// ---------------------------------------------------------------------------

func TestGinWrap_PropagatesRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.GinWrap(middleware.RequestID()))
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetHeader(middleware.HeaderRequestID))
	})

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Body.String() == "" {
		t.Fatal("expected the generated request ID to reach the gin handler")
	}
	if rr.Header().Get(middleware.HeaderRequestID) != rr.Body.String() {
		t.Errorf("response header and handler view disagree")
	}
}
