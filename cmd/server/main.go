package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/skarger/chatmood/internal/broadcast"
	"github.com/skarger/chatmood/internal/cache"
	"github.com/skarger/chatmood/internal/classifier"
	"github.com/skarger/chatmood/internal/config"
	"github.com/skarger/chatmood/internal/database"
	"github.com/skarger/chatmood/internal/logging"
	"github.com/skarger/chatmood/internal/pipeline"
	"github.com/skarger/chatmood/internal/server"
	"github.com/skarger/chatmood/internal/twitch"

	"github.com/jackc/pgx/v5/pgxpool"
)

func setupConfig() *config.Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupClassifier(cfg *config.Config) *classifier.Model {
	model, err := classifier.Load(cfg.VectorizerPath, cfg.ClassifierPath)
	if err != nil {
		slog.Error("Failed to load classifier artifacts", "error", err)
		os.Exit(1)
	}
	slog.Info("Classifier loaded", "vectorizer", cfg.VectorizerPath, "classifier", cfg.ClassifierPath)
	return model
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func logDatabaseStatus(repo *database.MessageRepo) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := repo.CountMessages(ctx)
	if err != nil {
		slog.Warn("Failed to read message count", "error", err)
		return
	}
	sentiments, err := repo.CountSentiments(ctx)
	if err != nil {
		slog.Warn("Failed to read sentiment count", "error", err)
		return
	}
	slog.Info("Database status", "messages", messages, "sentiments", sentiments)
}

func runGracefulShutdown(cancel context.CancelFunc, srv *server.Server, publisher *broadcast.Publisher, client *twitch.Client) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		publisher.Stop()
		client.Close()
		cancel()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "channels", cfg.Channels)

	model := setupClassifier(cfg)

	pool := setupDB(cfg)
	defer pool.Close()

	repo := database.NewMessageRepo(pool)
	logDatabaseStatus(repo)

	sentimentCache := cache.New(cfg.CacheCapacity, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := twitch.NewClient(twitch.DefaultServerURL, cfg.Channels)
	if err := client.Connect(ctx); err != nil {
		slog.Error("Failed to connect to chat", "error", err)
		os.Exit(1)
	}
	go client.Listen(ctx)

	ingest := pipeline.New(model, repo, sentimentCache, clock)
	go ingest.Run(ctx, client.Events())

	publisher := broadcast.NewPublisher(sentimentCache, cfg.AggregateWindow, cfg.TickInterval, cfg.ErrorBackoff, clock)

	srv := server.NewServer(cfg, repo, sentimentCache, publisher, pool)

	done := runGracefulShutdown(cancel, srv, publisher, client)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
