package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"jokes-web/internal/bot"
	"jokes-web/internal/config"
	"jokes-web/internal/database"
	"jokes-web/internal/jokeapi"
	"jokes-web/internal/queue"
	"jokes-web/internal/server"
	"jokes-web/pkg/logger"

	"github.com/rs/zerolog"
	"gopkg.in/telebot.v4"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrEmptyDatabaseURL) {
			fmt.Fprintln(os.Stderr, "Error: DATABASE_URL environment variable is required")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		}
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if cfg.App.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	logger.Init(cfg.App.LogLevel, out)
	logger.Info("Starting jokes-web",
		logger.String("app", cfg.App.Name),
		logger.String("environment", cfg.App.Environment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		var dbErr *database.ConnectionError
		if errors.As(err, &dbErr) {
			logger.Error("Failed to connect to database",
				logger.Err(dbErr.Err),
				logger.String("database", dbErr.URL),
			)
		} else {
			logger.Error("Failed to connect to database",
				logger.Err(err),
			)
		}
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to database")

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			logger.Error("Failed to migrate database", logger.Err(err))
			os.Exit(1)
		}
		logger.Info("Database migrations applied")
	}

	jokeRepo := database.NewJokeRepository(db)
	jokeClient := jokeapi.New(cfg.JokeAPI)

	opts := []server.Option{
		server.WithHealthCheck(cfg.Health.Endpoint, db),
	}

	var q *queue.NATS
	if cfg.NATS.Enabled() {
		q, err = queue.New(cfg.NATS)
		if err != nil {
			logger.Error("Failed to connect to NATS", logger.Err(err))
			os.Exit(1)
		}
		defer q.Close()
		logger.Info("Connected to NATS", logger.String("url", cfg.NATS.URL))
		opts = append(opts, server.WithEventPublisher(q))
	}

	var tbot *telebot.Bot
	if cfg.Bot.Enabled() {
		var feed bot.FavoriteFeed
		if q != nil {
			feed = q
		}
		telegramBot, err := bot.New(cfg.Bot, jokeRepo, jokeClient, feed)
		if err != nil {
			logger.Error("Failed to create bot", logger.Err(err))
			os.Exit(1)
		}
		tbot, err = telegramBot.Start(ctx)
		if err != nil {
			logger.Error("Failed to start bot", logger.Err(err))
			os.Exit(1)
		}
		logger.Info("Telegram bot started")
	}

	srv := server.New(jokeRepo, jokeClient, opts...)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("HTTP server starting", logger.Int("port", cfg.HTTP.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", logger.Err(err))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if tbot != nil {
		tbot.Stop()
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", logger.Err(err))
	}

	logger.Info("Server stopped gracefully")
}
