package main

import (
	"context"
	"ctchen222/tictac/internal/config"
	"ctchen222/tictac/internal/events"
	"ctchen222/tictac/internal/logger"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "print round events published on Redis",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("redis address is not configured")
			}
			log := logger.Init(cfg.Log)

			rdb, err := events.NewRedisClient(ctx, cfg.Redis.Addr)
			if err != nil {
				return err
			}
			defer rdb.Close()

			return events.Listen(ctx, rdb, cfg.Redis.Channel, func(ctx context.Context, e events.Event) {
				log.DebugContext(ctx, "event received", "event.type", e.Type)
				fmt.Fprintf(os.Stdout, "%s %s\n", e.Type, e.Payload)
			})
		},
	}
}
