package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Dosada05/pingpong-league/db"
)

var databaseURLFlag = &cli.StringFlag{
	Name:     "database-url",
	Usage:    "postgres connection string",
	EnvVars:  []string{"DATABASE_URL"},
	Required: true,
}

func withDatabase(fn func(c *cli.Context, conn *sql.DB) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		conn, err := db.Connect(c.String("database-url"), 5*time.Second)
		if err != nil {
			return err
		}
		defer conn.Close()
		return fn(c, conn)
	}
}

func newMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Flags: []cli.Flag{databaseURLFlag},
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: withDatabase(func(c *cli.Context, conn *sql.DB) error {
					if err := db.MigrateUp(conn); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "migrations applied")
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: withDatabase(func(c *cli.Context, conn *sql.DB) error {
					steps := c.Int("steps")
					if steps < 1 {
						return fmt.Errorf("steps must be at least 1, got %d", steps)
					}
					if err := db.MigrateDown(conn, steps); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "rolled back %d migration(s)\n", steps)
					return nil
				}),
			},
			{
				Name:  "version",
				Usage: "print the applied schema version",
				Action: withDatabase(func(c *cli.Context, conn *sql.DB) error {
					version, dirty, ok, err := db.MigrationVersion(conn)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(c.App.Writer, "no migrations applied")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "version %d (dirty: %t)\n", version, dirty)
					return nil
				}),
			},
		},
	}
}
