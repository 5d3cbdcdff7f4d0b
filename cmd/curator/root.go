package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
	"github.com/ShagReza/DataCuration-EASMS/internal/infrastructure"
)

// loggerFactory builds the process logger from the loaded configuration
type loggerFactory func(cfg config.LoggingConfig) (*slog.Logger, error)

func defaultLoggerFactory(cfg config.LoggingConfig) (*slog.Logger, error) {
	return infrastructure.InitializeLogger(cfg)
}

// rootOptions holds the flags shared by every command
type rootOptions struct {
	configFile string
	dataDir    string
	inputDir   string
	outputDir  string
	database   string
	workers    int
	logLevel   string

	newLogger loggerFactory
}

func newRootCmd(newLogger loggerFactory) *cobra.Command {
	opts := &rootOptions{newLogger: newLogger}

	root := &cobra.Command{
		Use:   "curator",
		Short: "Curate EASMS screening tables into ML-ready datasets",
		Long: "curator scores replicate intensities against sibling targets, resolves\n" +
			"conflicting SMILES and assigns activity labels to every dataset of an\n" +
			"input directory.",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (defaults to config.yaml, configs/config.yaml or $EASMS_CONFIG)")
	pf.StringVar(&opts.dataDir, "data", "", "data directory relative paths resolve against")
	pf.StringVar(&opts.inputDir, "in", "", "input directory of .csv/.xlsx screens")
	pf.StringVar(&opts.outputDir, "out", "", "output directory for MLReady_ datasets")
	pf.StringVar(&opts.database, "db", "", "SQLite run ledger file")
	pf.IntVar(&opts.workers, "workers", 0, "concurrent dataset workers")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newRunCmd(opts, config.ModeFull),
		newRunCmd(opts, config.ModeScore),
		newRunCmd(opts, config.ModeLabel),
		newRunsCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return root
}
