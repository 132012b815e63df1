package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "urdf",
		Usage: "Funding applications, status lookup and admin review",
		Commands: []*cli.Command{
			serveCommand,
			migrateCommand,
			seedCommand,
			grantAdminCommand,
			revokeAdminCommand,
			lookupCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
