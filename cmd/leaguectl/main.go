package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "leaguectl",
		Usage: "operate the ping-pong league database and dry-run tournaments",
		Commands: []*cli.Command{
			newMigrateCommand(),
			newSimulateCommand(),
		},
	}
}
