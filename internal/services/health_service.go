package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/ShagReza/DataCuration-EASMS/internal/config"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// ActiveRunLister lists runs in progress
type ActiveRunLister interface {
	ActiveRuns() []string
}

// HealthService provides health check functionality
type HealthService struct {
	ledger    Pinger
	runs      ActiveRunLister
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status     string                   `json:"status"`
	Timestamp  time.Time                `json:"timestamp"`
	Version    string                   `json:"version"`
	Uptime     string                   `json:"uptime,omitempty"`
	ActiveRuns int                      `json:"active_runs"`
	Services   map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionInfo describes the running build
type VersionInfo struct {
	App       string `json:"app"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Health states
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// NewHealthService creates a health service. Either dependency may be nil.
func NewHealthService(ledger Pinger, runs ActiveRunLister, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		ledger:    ledger,
		runs:      runs,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// LivenessCheck reports that the process is serving requests
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   config.Version,
		Uptime:    time.Since(hs.startTime).Round(time.Second).String(),
	}
}

// ReadinessCheck pings the run ledger. The returned flag is false when any
// dependency is unavailable.
func (hs *HealthService) ReadinessCheck(ctx context.Context) (HealthStatus, bool) {
	status := hs.LivenessCheck(ctx)
	status.Services = make(map[string]ServiceHealth)
	ready := true

	if hs.ledger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := hs.ledger.Ping(pingCtx); err != nil {
			hs.logger.WarnContext(ctx, "run ledger unavailable", slog.String("error", err.Error()))
			status.Services["ledger"] = ServiceHealth{Status: "unavailable", Message: err.Error()}
			ready = false
		} else {
			status.Services["ledger"] = ServiceHealth{Status: StatusOK}
		}
	}
	if hs.runs != nil {
		status.ActiveRuns = len(hs.runs.ActiveRuns())
	}
	if !ready {
		status.Status = StatusDegraded
	}
	return status, ready
}

// Version returns build information
func (hs *HealthService) Version() VersionInfo {
	return VersionInfo{
		App:       config.AppName,
		Version:   config.Version,
		Commit:    config.Commit,
		BuildTime: config.BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
