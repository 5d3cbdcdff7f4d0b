package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "EASMS"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Scoring   ScoringConfig   `yaml:"scoring" envconfig:"SCORING"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system paths. Relative paths are resolved
// against DataDir by GetPaths.
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	InputDir     string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	MLReadyDir   string `yaml:"mlready_dir" envconfig:"MLREADY_DIR" validate:"required"`
	ReportsDir   string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	DatabaseFile string `yaml:"database_file" envconfig:"DATABASE_FILE" validate:"required"`
}

// InputConfig controls how dataset tables are read
type InputConfig struct {
	// Sheet selects the worksheet of .xlsx inputs; empty means the first.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`
}

// ScoringConfig tunes the score engine
type ScoringConfig struct {
	MinPooledValues int     `yaml:"min_pooled_values" envconfig:"MIN_POOLED_VALUES" validate:"min=2"`
	VarianceEpsilon float64 `yaml:"variance_epsilon" envconfig:"VARIANCE_EPSILON" validate:"gt=0"`
	Workers         int     `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=64"`
}

// OutputConfig controls what a run writes
type OutputConfig struct {
	LabelColumn     string `yaml:"label_column" envconfig:"LABEL_COLUMN" validate:"oneof=AIRCHECK_LABEL LABEL"`
	NonTargetColumn string `yaml:"nontarget_column" envconfig:"NONTARGET_COLUMN" validate:"required"`
	ConflictLog     bool   `yaml:"conflict_log" envconfig:"CONFLICT_LOG"`
	SummaryWorkbook bool   `yaml:"summary_workbook" envconfig:"SUMMARY_WORKBOOK"`
	// MetricsTextfile, when set, receives the metrics registry at the end of
	// a batch run.
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RunTimeout      time.Duration   `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"required_if=Enabled true,gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"required_if=Enabled true,gte=0"`
}

// TelemetryConfig selects tracing and metrics exporters
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/curator.log",
		},
		Paths: PathsConfig{
			DataDir:      "data",
			InputDir:     "input",
			MLReadyDir:   "mlready",
			ReportsDir:   "reports",
			LogsDir:      "logs",
			DatabaseFile: "runs.db",
		},
		Scoring: ScoringConfig{
			MinPooledValues: 3,
			VarianceEpsilon: 1e-8,
			Workers:         4,
		},
		Output: OutputConfig{
			LabelColumn:     "AIRCHECK_LABEL",
			NonTargetColumn: "MEAN_NONTARGET_VALUES",
			ConflictLog:     true,
			SummaryWorkbook: true,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RunTimeout:      30 * time.Minute,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     10,
				Burst:   20,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "easms-curator",
			TraceExporter: "none",
			EnableMetrics: true,
		},
	}
}

// Load builds the configuration from defaults, the config file found by
// getConfigFilePath and EASMS_* environment variables, in increasing order of
// precedence.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file "+path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewConfigError("config validation failed", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return apperrors.NewConfigError("config validation failed: "+strings.Join(msgs, "; "), nil)
}

// getConfigFilePath returns the path to the config file, or "" when none is
// found
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
