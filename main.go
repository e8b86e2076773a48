package main

import (
	"fmt"
	"os"

	"writer/config"
	"writer/pkg/logger"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "writer",
		Usage: "Document store and app shell for the writer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "Load environment variables from this file",
				Value:   ".env",
				EnvVars: []string{"WRITER_ENV_FILE"},
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Storage backend (postgres, badger); overrides WRITER_BACKEND",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides WRITER_LOG_LEVEL",
			},
		},
		Before: setup,
		After: func(*cli.Context) error {
			logger.Sync()
			return nil
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the document API, change feed and app shell",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address; overrides WRITER_ADDR",
					},
				},
			},
			{
				Name:   "migrate",
				Usage:  "Bring the store's schema up to date and exit",
				Action: migrateCommand,
			},
			{
				Name:  "docs",
				Usage: "Inspect and edit documents from the command line",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List documents as {id, title}",
						Action: listCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "by-title", Usage: "Order by the title index"},
						},
					},
					{
						Name:      "get",
						Usage:     "Print one document",
						ArgsUsage: "ID",
						Action:    getCommand,
					},
					{
						Name:   "save",
						Usage:  "Insert a document, or replace it when --id is given",
						Action: saveCommand,
						Flags: []cli.Flag{
							&cli.Int64Flag{Name: "id", Usage: "Document id to replace"},
							&cli.StringFlag{Name: "title", Usage: "Document title"},
							&cli.StringFlag{Name: "content", Usage: "Document content as JSON", Value: "null"},
						},
					},
				},
			},
		},
	}
}

// setup loads configuration and initialises the global logger.
func setup(c *cli.Context) error {
	envLoaded := config.LoadEnv(c.String("env-file"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if v := c.String("backend"); v != "" {
		cfg.Backend = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.LogLevel)
	if !envLoaded {
		logger.Sugar.Debug("No .env file found, using environment variables from OS")
	}

	c.App.Metadata = map[string]interface{}{"config": cfg}
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata["config"].(*config.Config)
}
