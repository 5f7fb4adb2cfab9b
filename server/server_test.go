package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injectkit/component"
	apperrors "github.com/kbukum/injectkit/errors"
	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/server/endpoint"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.ApplyDefaults()
	return New(cfg, logger.Nop())
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.ContextPath != "/" {
		t.Errorf("expected context path '/', got %q", cfg.ContextPath)
	}
	if cfg.AdminPath != "/admin" {
		t.Errorf("expected admin path '/admin', got %q", cfg.AdminPath)
	}
	if cfg.CORS.Enabled() {
		t.Error("CORS should stay disabled without origins")
	}
}

func TestConfigPathNormalization(t *testing.T) {
	tests := []struct {
		name        string
		context     string
		admin       string
		wantContext string
		wantAdmin   string
	}{
		{"bare names", "api", "ops", "/api/", "/ops"},
		{"trailing slashes", "/api/", "/ops/", "/api/", "/ops"},
		{"root", "/", "", "/", "/admin"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{ContextPath: tc.context, AdminPath: tc.admin}
			cfg.ApplyDefaults()
			if cfg.ContextPath != tc.wantContext || cfg.AdminPath != tc.wantAdmin {
				t.Errorf("got context=%q admin=%q", cfg.ContextPath, cfg.AdminPath)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Port: 8080, ContextPath: "/", AdminPath: "/admin"}, false},
		{"port too large", Config{Port: 70000, AdminPath: "/admin"}, true},
		{"negative timeout", Config{ReadTimeout: -1, AdminPath: "/admin"}, true},
		{"admin at root", Config{AdminPath: "/"}, true},
		{"admin under context", Config{ContextPath: "/api/", AdminPath: "/api/admin"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestDefaultEndpoints(t *testing.T) {
	s := newTestServer(t, Config{})
	s.ApplyDefaults(endpoint.Service{Name: "users"}, func(context.Context) []component.Health {
		return []component.Health{{Name: "db", Status: component.StatusHealthy}}
	})

	tests := []struct {
		path   string
		status int
	}{
		{"/admin/health", http.StatusOK},
		{"/admin/ping", http.StatusOK},
		{"/admin/info", http.StatusOK},
		{"/admin/metrics", http.StatusOK},
		{"/missing", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, http.NoBody))
			if rr.Code != tc.status {
				t.Errorf("expected %d, got %d", tc.status, rr.Code)
			}
			if rr.Header().Get("X-Request-Id") == "" {
				t.Error("expected request ID on every response")
			}
		})
	}
}

func TestHealthUnhealthyReturns503(t *testing.T) {
	s := newTestServer(t, Config{})
	s.RegisterDefaultEndpoints(endpoint.Service{Name: "users"}, func(context.Context) []component.Health {
		return []component.Health{{Name: "db", Status: component.StatusUnhealthy, Message: "down"}}
	})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/health", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	var body struct {
		Status     string             `json:"status"`
		Components []component.Health `json:"components"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Status != "unhealthy" || len(body.Components) != 1 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestTasksEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})
	s.RegisterTasks(func(_ context.Context, name string, params map[string][]string, out io.Writer) error {
		if name != "gc" {
			return apperrors.NotFound("task", name)
		}
		fmt.Fprintf(out, "collected %s", strings.Join(params["gen"], ","))
		return nil
	})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/tasks/gc?gen=2", http.NoBody))
	if rr.Code != http.StatusOK || rr.Body.String() != "collected 2" {
		t.Errorf("unexpected response %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/tasks/nope", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown task, got %d", rr.Code)
	}
}

func TestRecoveryAtServerLevel(t *testing.T) {
	s := newTestServer(t, Config{})
	s.ApplyMiddleware()
	s.GinEngine().GET("/boom", func(*gin.Context) { panic("boom") })

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestHandleMountsOnMux(t *testing.T) {
	s := newTestServer(t, Config{})
	s.Handle("/raw/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("raw"))
	}))

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/raw/x", http.NoBody))
	if rr.Body.String() != "raw" {
		t.Errorf("expected mux handler, got %q", rr.Body.String())
	}
}

func TestStartStop(t *testing.T) {
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := New(cfg, logger.Nop())
	s.RegisterDefaultEndpoints(endpoint.Service{Name: "users"})
	sc := NewComponent(s)

	if sc.Health(context.Background()).Status != component.StatusUnhealthy {
		t.Error("expected unhealthy before start")
	}
	if err := sc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer sc.Stop(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/admin/ping")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "pong" {
		t.Errorf("expected pong, got %q", body)
	}
	if sc.Health(context.Background()).Status != component.StatusHealthy {
		t.Error("expected healthy after start")
	}
}

func TestComponentRoutes(t *testing.T) {
	s := newTestServer(t, Config{})
	s.RegisterDefaultEndpoints(endpoint.Service{Name: "users"})
	s.GinEngine().POST("/users", func(*gin.Context) {})
	s.GinEngine().GET("/users", func(*gin.Context) {})

	routes := NewComponent(s).Routes()
	if len(routes) < 3 {
		t.Fatalf("expected routes, got %v", routes)
	}
	if routes[0].Path != "/users" || routes[0].Method != "GET" {
		t.Errorf("expected GET /users first, got %+v", routes[0])
	}
	if routes[1].Method != "POST" {
		t.Errorf("expected POST /users second, got %+v", routes[1])
	}
	last := routes[len(routes)-1]
	if !strings.HasPrefix(last.Path, "/admin") || !strings.HasSuffix(last.Handler, "(admin)") {
		t.Errorf("expected admin routes last, got %+v", last)
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"github.com/acme/users/api.(*UsersResource).List-fm", "UsersResource.List"},
		{"github.com/kbukum/injectkit/server/endpoint.Health.func1", "health"},
		{"main.handler", "handler"},
	}
	for _, tc := range tests {
		if got := formatHandlerName(tc.in); got != tc.want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{"app error", apperrors.NotFound("user", "1"), http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"wrapped app error", fmt.Errorf("lookup: %w", apperrors.NotReady("configuration")), http.StatusServiceUnavailable, apperrors.ErrCodeNotReady},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rr)
			RespondWithError(c, tc.err)
			if rr.Code != tc.status {
				t.Errorf("expected %d, got %d", tc.status, rr.Code)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Error.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, body.Error.Code)
			}
		})
	}
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	RespondOK(c, map[string]int{"n": 1})
	if rr.Code != http.StatusOK || rr.Body.String() != `{"data":{"n":1}}` {
		t.Errorf("unexpected response %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rr)
	Respond(c, http.StatusNoContent, nil)
	c.Writer.WriteHeaderNow()
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Errorf("expected an empty 204, got %d %q", rr.Code, rr.Body.String())
	}
}
