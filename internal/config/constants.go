package config

// Application constants
const (
	AppName = "EASMS Curator"

	// API Endpoints
	APIBasePath     = "/api"
	HealthEndpoint  = "/api/health"
	VersionEndpoint = "/api/version"
	RunsEndpoint    = "/api/runs"
	MetricsEndpoint = "/metrics"
)

// Build information, set with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Run modes accepted by the pipeline.
const (
	ModeFull  = "full"
	ModeScore = "score"
	ModeLabel = "label"
)

// Modes lists every run mode.
var Modes = []string{ModeFull, ModeScore, ModeLabel}
