package main

import (
	"context"
	"fmt"

	"urdf/internal/db"
	"urdf/internal/seed"
	"urdf/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo applications",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of fake applications to generate",
			Value:   25,
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Delete previously generated fake applications first",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		// Connect to database
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		applicationRepo := store.NewApplicationRepository(pool)

		if err := seed.SeedDemoApplication(ctx, applicationRepo); err != nil {
			return err
		}

		logrus.Info("Seeding fake applications...")
		if err := seed.SeedFakeApplications(ctx, applicationRepo, cfg.ReferencePrefix, c.Int("count"), c.Bool("reset")); err != nil {
			return fmt.Errorf("failed to seed applications: %w", err)
		}

		logrus.Info("Applications seeded successfully")

		return nil
	},
}
