package http

import (
	"context"

	"github.com/ShagReza/DataCuration-EASMS/internal/operations"
	"github.com/ShagReza/DataCuration-EASMS/internal/services"
	"github.com/ShagReza/DataCuration-EASMS/internal/store"
)

// RunServiceInterface is the run service as seen by RunsHandler
type RunServiceInterface interface {
	StartRun(ctx context.Context, req operations.Request) (*operations.Response, error)
	GetRun(ctx context.Context, id string) (*store.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*store.Run, error)
	ActiveRuns() []string
}

// HealthServiceInterface is the health service as seen by HealthHandler
type HealthServiceInterface interface {
	LivenessCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) (services.HealthStatus, bool)
	Version() services.VersionInfo
}
