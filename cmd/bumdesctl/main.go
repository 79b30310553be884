package main

import (
	"context"
	"os"

	"bumdes/internal/cli"
	"bumdes/internal/log"
)

func main() {
	cli.LoadEnvFile()

	load := func(ctx context.Context) (*cli.App, error) {
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return nil, err
		}
		// Keep command output readable: only warnings and errors are logged.
		if cfg.LogLevel == "info" {
			cfg.LogLevel = "warn"
		}
		logger := cli.SetupLogger(cfg, log.ComponentCLI)
		return cli.NewApp(ctx, cfg, logger)
	}

	if err := cli.NewRootCommand(load).Execute(); err != nil {
		os.Exit(1)
	}
}
