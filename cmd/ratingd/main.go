package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/mahjong-bot/app"
	"github.com/Black-And-White-Club/mahjong-bot/app/observability"
	"github.com/Black-And-White-Club/mahjong-bot/config"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	cliApp := &cli.App{
		Name:    "ratingd",
		Usage:   "mahjong rating ledger service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.String("config"))
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(configFile string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	obs, err := observability.Init(ctx, observability.Config{
		ServiceName: "mahjong-rating",
		Environment: cfg.Observability.Environment,
		Version:     version,
		LogLevel:    cfg.Observability.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Logger

	application := &app.App{}
	if err := application.Initialize(ctx, cfg, obs); err != nil {
		application.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	runErr := application.Run(ctx)
	if runErr != nil {
		logger.Error("Application stopped with error", "error", runErr)
	}

	logger.Info("Shutting down")
	application.Close()
	return runErr
}
