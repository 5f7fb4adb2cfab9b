package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/server/endpoint"
	"github.com/kbukum/injectkit/server/middleware"
)

// Server is an HTTP server backed by Gin. Additional http.Handler mounts
// share the port through a root ServeMux, and server-level middleware wraps
// everything.
type Server struct {
	httpServer  *http.Server
	engine      *gin.Engine
	mux         *http.ServeMux
	config      Config
	log         *logger.Logger
	middlewares []middleware.Middleware
	stats       []endpoint.StatsFunc

	handlerOnce sync.Once
	handler     http.Handler
	listener    net.Listener
}

// New creates a new Server. The Gin engine is created but no middleware is
// applied yet. Call ApplyDefaults on the config first if needed.
func New(cfg Config, log *logger.Logger) *Server {
	// Set Gin mode based on global zerolog level.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	engine := gin.New()
	mux := http.NewServeMux()

	// Gin is the fallback handler on the root mux.
	mux.Handle("/", engine)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		mux:        mux,
		config:     cfg,
		log:        log.WithComponent("server"),
	}
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Config returns the server configuration.
func (s *Server) Config() Config {
	return s.config
}

// Handle mounts an http.Handler at the given pattern on the root ServeMux.
// The pattern must include a trailing slash for subtree matches.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", map[string]interface{}{
		"pattern": pattern,
	})
}

// Use appends server-level middleware. It must be called before the first
// call to Handler or Start.
func (s *Server) Use(mws ...middleware.Middleware) {
	s.middlewares = append(s.middlewares, mws...)
}

// Handler returns the root handler: middleware around the mux, wrapped with
// h2c for HTTP/2 cleartext. It is built once.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		h2s := &http2.Server{
			MaxConcurrentStreams: 250,
			IdleTimeout:          120 * time.Second,
		}
		s.handler = h2c.NewHandler(middleware.Chain(s.middlewares...)(s.mux), h2s)
	})
	return s.handler
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting HTTP server", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener
	s.httpServer.Handler = s.Handler()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": listener.Addr().String(),
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// ApplyMiddleware installs the standard server-level stack: recovery,
// request ID, CORS (when origins are configured), body-size limit and
// request logging. Admin endpoints are not logged.
func (s *Server) ApplyMiddleware() {
	s.Use(middleware.Recovery(s.log), middleware.RequestID())
	if s.config.CORS.Enabled() {
		s.Use(middleware.CORS(&s.config.CORS))
	}
	if s.config.MaxBodySize != "" {
		s.Use(middleware.BodySizeLimit(s.config.MaxBodySize))
	}
	s.Use(middleware.RequestLogger(s.log, s.AdminPath()))
}

// AdminPath returns the configured admin root, "/admin" by default.
func (s *Server) AdminPath() string {
	if s.config.AdminPath == "" {
		return "/admin"
	}
	return s.config.AdminPath
}

// Admin returns the router group of the admin endpoints.
func (s *Server) Admin() *gin.RouterGroup {
	return s.engine.Group(s.AdminPath())
}

// AddStats contributes application counters to the metrics endpoint. It
// must be called before RegisterDefaultEndpoints.
func (s *Server) AddStats(fns ...endpoint.StatsFunc) {
	s.stats = append(s.stats, fns...)
}

// RegisterDefaultEndpoints registers health, ping, info and metrics under
// the admin path.
func (s *Server) RegisterDefaultEndpoints(svc endpoint.Service, checkers ...endpoint.HealthChecker) {
	admin := s.Admin()
	admin.GET("/health", endpoint.Health(svc.Name, checkers...))
	admin.GET("/ping", endpoint.Ping())
	admin.GET("/info", endpoint.Info(svc))
	admin.GET("/metrics", endpoint.Metrics(s.stats...))
}

// RegisterTasks registers POST {admin}/tasks/:name.
func (s *Server) RegisterTasks(run endpoint.TaskRunner) {
	s.Admin().POST("/tasks/:name", endpoint.Tasks(run))
}

// ApplyDefaults applies the standard middleware stack and registers default endpoints.
func (s *Server) ApplyDefaults(svc endpoint.Service, checkers ...endpoint.HealthChecker) {
	s.ApplyMiddleware()
	s.RegisterDefaultEndpoints(svc, checkers...)
}
