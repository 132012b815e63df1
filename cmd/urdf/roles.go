package main

import (
	"context"
	"fmt"
	"strings"

	"urdf/internal/db"
	"urdf/internal/store"
	"urdf/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var userIDFlag = &cli.StringFlag{
	Name:     "user-id",
	Aliases:  []string{"u"},
	Usage:    "Cognito subject of the account",
	Required: true,
}

var grantAdminCommand = &cli.Command{
	Name:  "grant-admin",
	Usage: "Grant the admin role to an account",
	Flags: []cli.Flag{userIDFlag},
	Action: func(c *cli.Context) error {
		return withRoleRepository(func(ctx context.Context, repo *store.RoleRepository, userID string) error {
			if err := repo.GrantRole(ctx, userID, types.RoleAdmin); err != nil {
				return err
			}
			logrus.WithField("user_id", userID).Info("admin role granted")
			return nil
		})(c)
	},
}

var revokeAdminCommand = &cli.Command{
	Name:  "revoke-admin",
	Usage: "Revoke the admin role from an account",
	Flags: []cli.Flag{userIDFlag},
	Action: func(c *cli.Context) error {
		return withRoleRepository(func(ctx context.Context, repo *store.RoleRepository, userID string) error {
			if err := repo.RevokeRole(ctx, userID, types.RoleAdmin); err != nil {
				return err
			}
			logrus.WithField("user_id", userID).Info("admin role revoked")
			return nil
		})(c)
	},
}

func withRoleRepository(fn func(ctx context.Context, repo *store.RoleRepository, userID string) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		userID := strings.TrimSpace(c.String("user-id"))
		if userID == "" {
			return fmt.Errorf("user-id is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		repo := store.NewRoleRepository(pool)
		if err := fn(ctx, repo, userID); err != nil {
			return err
		}

		roles, err := repo.RolesByUser(ctx, userID)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, string(r.Role))
		}
		fmt.Printf("%s roles: [%s]\n", userID, strings.Join(names, ", "))

		return nil
	}
}
