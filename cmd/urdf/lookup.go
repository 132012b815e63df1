package main

import (
	"context"
	"errors"
	"fmt"

	"urdf/internal/db"
	"urdf/internal/lifecycle"
	"urdf/internal/store"
	"urdf/pkg/types"

	"github.com/k0kubun/pp"
	"github.com/urfave/cli/v2"
)

var lookupCommand = &cli.Command{
	Name:      "lookup",
	Usage:     "Print what the public status page shows for a reference number",
	ArgsUsage: "<reference-number>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected exactly one reference number")
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := newLogger(cfg)
		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		manager := lifecycle.New(
			logger,
			store.NewApplicationRepository(pool),
			store.NewRoleRepository(pool),
			store.NewDocumentRepository(pool),
			cfg.ReferencePrefix,
		)

		view, err := manager.LookupByReference(ctx, c.Args().First())
		if err != nil {
			if errors.Is(err, types.ErrApplicationNotFound) {
				fmt.Println("No application found with that reference number.")
				return nil
			}
			return err
		}

		desc, err := lifecycle.DescribeStatus(view.Status)
		if err != nil {
			return err
		}

		pp.Println(view)
		pp.Println(desc)

		return nil
	},
}
