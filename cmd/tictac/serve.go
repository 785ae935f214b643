package main

import (
	"context"
	"ctchen222/tictac/internal/config"
	"ctchen222/tictac/internal/events"
	"ctchen222/tictac/internal/logger"
	"ctchen222/tictac/internal/round"
	"ctchen222/tictac/internal/server"
	"ctchen222/tictac/internal/session"
	"ctchen222/tictac/internal/telemetry"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "host rounds over HTTP and websocket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "listen address, overrides the config",
				Sources: cli.EnvVars("TICTAC_ADDR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			if addr := cmd.String("addr"); addr != "" {
				cfg.HTTP.Addr = addr
			}
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Init(cfg.Log)

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", "error", err)
		}
	}()

	publisher, err := newPublisher(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	mode, err := round.ParseMode(cfg.Game.DefaultMode)
	if err != nil {
		return err
	}

	sessions := session.NewManager(cfg.Game.TimePerTurn,
		session.WithPublisher(publisher),
		session.WithPublishTimeout(cfg.Redis.PublishTimeout),
		session.WithLogger(log),
	)
	defer sessions.Close(context.Background())
	go sessions.RunReaper(ctx, cfg.Game.ReapInterval, cfg.Game.SessionTTL)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.NewServer(sessions, mode, log)

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: srv.Engine(),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server started", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("ListenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exiting")
	return nil
}

// newPublisher publishes to Redis when an address is configured.
func newPublisher(ctx context.Context, cfg config.Redis, log *slog.Logger) (events.Publisher, error) {
	if cfg.Addr == "" {
		log.Info("redis address not set, round events are not published")
		return events.NopPublisher{}, nil
	}

	rdb, err := events.NewRedisClient(ctx, cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	log.Info("publishing round events", "redis.addr", cfg.Addr, "channel", cfg.Channel)
	return events.NewRedisPublisher(rdb, cfg.Channel), nil
}
