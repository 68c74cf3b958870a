package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/skarger/chatmood/internal/broadcast"
	"github.com/skarger/chatmood/internal/config"
	"github.com/skarger/chatmood/internal/domain"
)

// pinger is the minimal database surface needed for readiness checks.
type pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	repo       domain.MessageRepository
	aggregator domain.Aggregator
	publisher  *broadcast.Publisher
	db         pinger
	upgrader   websocket.Upgrader
	startTime  time.Time
}

func NewServer(cfg *config.Config, repo domain.MessageRepository, aggregator domain.Aggregator, publisher *broadcast.Publisher, db pinger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	srv := &Server{
		echo:       e,
		config:     cfg,
		repo:       repo,
		aggregator: aggregator,
		publisher:  publisher,
		db:         db,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		startTime: time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
