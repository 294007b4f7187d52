// Package diag serves the optional local diagnostics endpoint: health,
// readiness, Prometheus metrics, and build info.
package diag

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pschneider14/venturelens/internal/version"
)

// backendPinger checks that the directory API is reachable.
type backendPinger interface {
	Ping(ctx context.Context) error
}

// Server is the diagnostics HTTP server, bound to a loopback address.
type Server struct {
	echo      *echo.Echo
	addr      string
	backend   backendPinger
	clock     clockwork.Clock
	startTime time.Time
}

// NewServer creates the diagnostics server listening on addr.
func NewServer(addr string, backend backendPinger, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:      e,
		addr:      addr,
		backend:   backend,
		clock:     clock,
		startTime: clock.Now(),
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/readyz", s.handleReady)
	e.GET("/version", s.handleVersion)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Start blocks serving diagnostics until Shutdown is called.
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Shutdown stops the diagnostics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

func (s *Server) handleReady(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.backend.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":       "unhealthy",
			"failed_check": "backend",
			"error":        err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}
