package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikey/spam-guardian/internal/config"
)

// Server runs the web UI and API
type Server struct {
	cfg        config.ServerConfig
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	logger     *zap.Logger
}

// NewServer creates a gin engine with recovery, access logging and the handler's routes
func NewServer(handler *Handler, cfg config.ServerConfig, logger *zap.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog(logger))

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	engine.SetHTMLTemplate(tmpl)
	handler.Register(engine)

	return &Server{
		cfg:    cfg,
		engine: engine,
		httpServer: &http.Server{
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}, nil
}

// Name identifies the server in logs
func (s *Server) Name() string {
	return "http"
}

// Handler exposes the router for in-process use
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.listener = l

	s.logger.Info("HTTP server starting", zap.String("address", l.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests for at most the configured shutdown timeout
func (s *Server) Stop() error {
	ctx := context.Background()
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}
