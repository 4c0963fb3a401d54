package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/relayerp/relay/internal/cache"
	"github.com/relayerp/relay/internal/command"
	"github.com/relayerp/relay/internal/config"
	"github.com/relayerp/relay/internal/i18n"
	"github.com/relayerp/relay/internal/modules/directory"
	"github.com/relayerp/relay/internal/modules/example"
	"github.com/relayerp/relay/internal/notify"
	"github.com/relayerp/relay/internal/server"
	"github.com/relayerp/relay/internal/store/postgres"
	redisstore "github.com/relayerp/relay/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	// Initialize structured logging from environment.
	logLevel := os.Getenv("RELAY_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("RELAY_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis. The pub/sub store owns the client; the cache
	// invalidator shares the same connection pool.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	invalidator := cache.NewRedisInvalidator(pubsub.Client())

	// Optional Slack activity notifications.
	var notifier command.Notifier
	if cfg.Slack.BotToken != "" && cfg.Slack.Channel != "" {
		slackClient := slacklib.New(cfg.Slack.BotToken)
		notifier = notify.NewSlackNotifier(slackClient, cfg.Slack.Channel, i18n.DefaultTag())
		log.Info().Str("channel", cfg.Slack.Channel).Msg("Slack notifications enabled")
	}

	// Register command handlers and build the bus.
	registry := command.NewRegistry()
	directory.Register(registry, store.Organizations())
	example.Register(registry, store.Todos())

	bus := command.NewBus(registry, store.ActionLogs(), invalidator, store, pubsub, notifier)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, bus, pubsub)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
