package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/server/endpoint"
	"github.com/kbukum/samuelizer/server/middleware"
)

const shutdownGrace = 5 * time.Second

// Server serves a Gin engine, mounted on a ServeMux, over HTTP/1.1 and
// cleartext HTTP/2.
type Server struct {
	cfg    Config
	log    *logger.Logger
	engine *gin.Engine
	mux    *http.ServeMux
	h2     *http2.Server
	http   *http.Server
	ln     net.Listener
}

// New builds the server without middleware. Gin runs in debug mode only
// when the global log level is debug.
func New(cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	mode := gin.ReleaseMode
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	s := &Server{
		cfg:    cfg,
		log:    log.WithComponent("server"),
		engine: gin.New(),
		mux:    http.NewServeMux(),
		h2:     &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: 2 * time.Minute},
	}
	s.mux.Handle("/", s.engine)
	s.http = &http.Server{
		Addr:         cfg.addr(),
		Handler:      h2c.NewHandler(s.mux, s.h2),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// GinEngine is where API routes get registered.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// Handler is the root handler, middleware included.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ApplyMiddleware wraps the mux with recovery, request IDs, CORS, the body
// size limit and request logging, outermost first. The per-client rate
// limit is not part of it; see RateLimit.
func (s *Server) ApplyMiddleware() {
	wrap := middleware.Chain(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.cfg.CORS),
		middleware.BodySizeLimit(s.cfg.MaxBodySize),
		middleware.RequestLogger(s.log),
	)
	s.http.Handler = h2c.NewHandler(wrap(s.mux), s.h2)
}

// RateLimit returns the /v1 limiter, or nil when disabled.
func (s *Server) RateLimit() gin.HandlerFunc {
	if s.cfg.RateLimit <= 0 {
		return nil
	}
	return middleware.RateLimit(middleware.RateLimitConfig{RequestsPerMinute: s.cfg.RateLimit})
}

// RegisterDefaultEndpoints mounts /health and /info.
func (s *Server) RegisterDefaultEndpoints(service string, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(service, checker))
	s.engine.GET("/info", endpoint.Info(service))
}

// ApplyDefaults is ApplyMiddleware plus RegisterDefaultEndpoints.
func (s *Server) ApplyDefaults(service string, checker endpoint.HealthChecker) {
	s.ApplyMiddleware()
	s.RegisterDefaultEndpoints(service, checker)
}

// Start binds the listener and serves in the background. Bind errors are
// returned; later serve errors are logged.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("server: bind %s: %w", s.http.Addr, err)
	}
	s.ln = ln
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("HTTP server started", logger.Fields("addr", s.Addr()))
	return nil
}

// Stop drains in-flight requests for up to five seconds.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Error("shutdown failed", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Addr is the bound address after Start, the configured one before.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.http.Addr
}
