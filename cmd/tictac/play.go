package main

import (
	"context"
	"ctchen222/tictac/internal/config"
	"ctchen222/tictac/internal/logger"
	"ctchen222/tictac/internal/player"
	"ctchen222/tictac/internal/round"
	"ctchen222/tictac/internal/session"
	"ctchen222/tictac/internal/terminal"
	"ctchen222/tictac/internal/validator"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "play a round in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "pvp, easy or medium; defaults to the configured mode",
			},
			&cli.DurationFlag{
				Name:  "time-per-turn",
				Usage: "time limit of a turn, between 1s and 30s; defaults to the configured limit",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "seed for a reproducible round, 0 picks a random one",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}
			if m := cmd.String("mode"); m != "" {
				cfg.Game.DefaultMode = m
			}
			if d := cmd.Duration("time-per-turn"); d != 0 {
				cfg.Game.TimePerTurn = d
			}
			if err := validator.GetValidator().Struct(cfg); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}
			return play(ctx, cfg, uint64(cmd.Int64("seed")), os.Stdin, os.Stdout)
		},
	}
}

func play(ctx context.Context, cfg *config.Config, seed uint64, in io.Reader, out io.Writer) error {
	mode, err := round.ParseMode(cfg.Game.DefaultMode)
	if err != nil {
		return err
	}

	// Only warnings reach the console while playing.
	log := logger.New(os.Stderr, config.Log{Level: "warn", Format: cfg.Log.Format})

	opts := []session.Option{session.WithLogger(log)}
	if seed != 0 {
		rng := round.NewRand(seed)
		opts = append(opts, session.WithRandFactory(func() player.Rand { return rng }))
	}
	sessions := session.NewManager(cfg.Game.TimePerTurn, opts...)
	defer sessions.Close(context.Background())

	s, err := sessions.Create(ctx, mode)
	if err != nil {
		return err
	}
	return terminal.New(s, in, out).Run(ctx)
}
