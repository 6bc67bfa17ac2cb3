package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	ratingqueue "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/queue"
	ratingmigrations "github.com/Black-And-White-Club/mahjong-bot/app/modules/rating/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/mahjong-bot/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

// dbContext is opened once the config flag has been parsed.
type dbContext struct {
	cfg      *config.Config
	db       *bun.DB
	migrator *migrate.Migrator
}

func main() {
	state := &dbContext{}

	cliApp := &cli.App{
		Name:  "bun",
		Usage: "rating database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "path to the configuration file",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
			state.cfg = cfg
			state.db = bun.NewDB(pgdb, pgdialect.New())
			state.migrator = migrate.NewMigrator(state.db, ratingmigrations.Migrations)
			return nil
		},
		After: func(c *cli.Context) error {
			if state.db != nil {
				return state.db.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			newDBCommand(state),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newDBCommand(state *dbContext) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return state.migrator.Init(c.Context)
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database, including River's queue tables",
				Action: func(c *cli.Context) error {
					if err := state.migrator.Lock(c.Context); err != nil {
						return err
					}
					defer state.migrator.Unlock(c.Context) //nolint:errcheck

					group, err := state.migrator.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No new rating migrations to run")
					} else {
						fmt.Printf("Migrated rating tables to %s\n", group)
					}

					applied, err := ratingqueue.MigrateRiver(c.Context, state.cfg.Postgres.DSN)
					if err != nil {
						return err
					}
					fmt.Printf("Applied %d River migrations\n", applied)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					if err := state.migrator.Lock(c.Context); err != nil {
						return err
					}
					defer state.migrator.Unlock(c.Context) //nolint:errcheck

					group, err := state.migrator.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("No groups to roll back")
					} else {
						fmt.Printf("Rolled back %s\n", group)
					}
					return nil
				},
			},
			{
				Name:  "create_go",
				Usage: "create Go migration",
				Action: func(c *cli.Context) error {
					name := strings.Join(c.Args().Slice(), "_")
					mf, err := state.migrator.CreateGoMigration(c.Context, name)
					if err != nil {
						return err
					}
					fmt.Printf("Created migration %s (%s)\n", mf.Name, mf.Path)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					ms, err := state.migrator.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("migrations: %s\n", ms)
					fmt.Printf("applied: %s\n", ms.Applied())
					fmt.Printf("unapplied: %s\n", ms.Unapplied())
					return nil
				},
			},
		},
	}
}
