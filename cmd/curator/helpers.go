package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
)

// loadConfig loads the configuration and applies the flags the user set.
// Flags win over the environment, which wins over the config file.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := o.readConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Paths.DataDir = o.dataDir
	}
	if flags.Changed("in") {
		cfg.Paths.InputDir = o.inputDir
	}
	if flags.Changed("out") {
		cfg.Paths.MLReadyDir = o.outputDir
	}
	if flags.Changed("db") {
		cfg.Paths.DatabaseFile = o.database
	}
	if flags.Changed("workers") {
		cfg.Scoring.Workers = o.workers
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *rootOptions) readConfig() (*config.Config, error) {
	if o.configFile != "" {
		return config.LoadFile(o.configFile)
	}
	return config.Load()
}

// setup loads the configuration and builds the logger
func (o *rootOptions) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := o.newLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger, nil
}
