// Package devserver runs a local stand-in for the platform API so the
// companion can be exercised without a real backend.
package devserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/fitpulse/companion/internal/config"
)

// Server is the local platform stub.
type Server struct {
	cfg     config.DevConfig
	echo    *echo.Echo
	history *historyStore
	respond Responder
}

// New creates the stub with all platform routes registered.
func New(cfg config.DevConfig) *Server {
	s := &Server{
		cfg:     cfg,
		history: newHistoryStore(),
		respond: newResponder(cfg),
	}

	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.POST("/api/v1/auth/login", s.handleLogin)
	e.POST("/api/v1/auth/refresh", s.handleRefresh)
	e.GET("/api/v1/users/me", s.handleProfile)
	e.GET("/api/v1/chat/messages", s.handleMessages)
	e.POST("/api/v1/chat/stream", s.handleStream)

	s.echo = e
	return s
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving on addr until Shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
