package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/skarger/chatmood/internal/domain"
	"github.com/skarger/chatmood/internal/version"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
	readinessTimeout   = 5 * time.Second
)

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message": "chatmood dashboard API",
		"status":  "running",
		"version": version.Get(),
	})
}

func (s *Server) handleRecentMessages(c echo.Context) error {
	limit := defaultRecentLimit
	if raw := c.QueryParam("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxRecentLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "n must be an integer between 1 and 100")
		}
		limit = parsed
	}

	messages, err := s.repo.RecentMessages(c.Request().Context(), limit)
	if err != nil {
		slog.Error("Failed to load recent messages", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to retrieve messages")
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}

	return c.JSON(http.StatusOK, messages)
}

func (s *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()

	messageCount, err := s.repo.CountMessages(ctx)
	if err != nil {
		slog.Error("Failed to count messages", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to retrieve stats")
	}
	sentimentCount, err := s.repo.CountSentiments(ctx)
	if err != nil {
		slog.Error("Failed to count sentiments", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to retrieve stats")
	}

	return c.JSON(http.StatusOK, map[string]int64{
		"message_count":   messageCount,
		"sentiment_count": sentimentCount,
	})
}

func (s *Server) handleCurrentSentiment(c echo.Context) error {
	window := s.config.AggregateWindow
	if raw := c.QueryParam("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "window must be an integer")
		}
		window = parsed
	}

	snapshot, err := s.aggregator.Aggregate(window)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWindow) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		slog.Error("Failed to aggregate sentiment", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to aggregate sentiment")
	}

	return c.JSON(http.StatusOK, snapshot)
}

// handleStream upgrades to a websocket and subscribes the connection to the
// publisher. The read loop exists only to observe disconnection.
func (s *Server) handleStream(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade failed")
	}

	unsubscribe, err := s.publisher.Subscribe(conn)
	if err != nil {
		_ = conn.Close()
		return nil
	}

	go func() {
		defer unsubscribe()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
