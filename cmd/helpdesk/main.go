// Package main is the help-desk terminal client.
package main

import (
	"fmt"
	"os"

	"github.com/labdesk/helpdesk/cmd/helpdesk/commands"
	"github.com/labdesk/helpdesk/internal/app"
	"github.com/labdesk/helpdesk/internal/config"
	"github.com/labdesk/helpdesk/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Command output goes to stdout; keep logs out of it.
	if os.Getenv("LOG_OUTPUT") == "" {
		cfg.Logger.Output = "stderr"
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Logger.Level = "warn"
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	client := app.Build(cfg, logger, observability.NewMetrics())
	root := commands.Root(client, commands.StdIO())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, commands.RenderError(err))
		os.Exit(1)
	}
}
