package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Output file naming.
const (
	MLReadyPrefix         = "MLReady_"
	ConflictLogPrefix     = "Conflicting_SMILES_Log_"
	SummaryWorkbookName   = "curation_summary.xlsx"
	DefaultOutputExt      = ".csv"
	temporaryOfficePrefix = "~$"
)

// Paths contains all the resolved application paths
type Paths struct {
	DataDir      string
	InputDir     string
	MLReadyDir   string
	ReportsDir   string
	LogsDir      string
	DatabaseFile string
}

// GetPaths resolves the configured paths. DataDir is made absolute; every
// other relative path is taken relative to DataDir.
func GetPaths(cfg PathsConfig) (*Paths, error) {
	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir %q: %w", cfg.DataDir, err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(dataDir, p)
	}

	return &Paths{
		DataDir:      dataDir,
		InputDir:     resolve(cfg.InputDir),
		MLReadyDir:   resolve(cfg.MLReadyDir),
		ReportsDir:   resolve(cfg.ReportsDir),
		LogsDir:      resolve(cfg.LogsDir),
		DatabaseFile: resolve(cfg.DatabaseFile),
	}, nil
}

// EnsureDirectories creates all output directories if they don't exist. The
// input directory is never created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.MLReadyDir,
		p.ReportsDir,
		p.LogsDir,
		filepath.Dir(p.DatabaseFile),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Stem returns the dataset name of a source file: its base name without
// extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MLReadyPath returns the output path for the curated form of a dataset.
func (p *Paths) MLReadyPath(name string) string {
	return filepath.Join(p.MLReadyDir, MLReadyPrefix+name+DefaultOutputExt)
}

// ConflictLogPath returns the path of the conflict log for a dataset.
func (p *Paths) ConflictLogPath(name string) string {
	return filepath.Join(p.ReportsDir, ConflictLogPrefix+name+DefaultOutputExt)
}

// SummaryWorkbookPath returns the path of the run summary workbook.
func (p *Paths) SummaryWorkbookPath() string {
	return filepath.Join(p.ReportsDir, SummaryWorkbookName)
}

// IsGeneratedName reports whether a file name belongs to a curated output or
// a spreadsheet lock file, neither of which is a curation input.
func IsGeneratedName(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, MLReadyPrefix) ||
		strings.HasPrefix(base, ConflictLogPrefix) ||
		strings.HasPrefix(base, temporaryOfficePrefix)
}

// LogPathResolution logs the resolved paths
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("path resolution summary",
		slog.Group("directories",
			slog.String("data", p.DataDir),
			slog.String("input", p.InputDir),
			slog.String("mlready", p.MLReadyDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.String("database", p.DatabaseFile))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
