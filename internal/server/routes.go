package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Dashboard API
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/messages/recent", s.handleRecentMessages)
	s.echo.GET("/stats", s.handleStats)
	s.echo.GET("/sentiment/current", s.handleCurrentSentiment)
	s.echo.GET("/sentiment/stream", s.handleStream)
}
