// Package store persists LCOE runs and the shared indicator cache.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/windcost/internal/model"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Country string          `json:"country,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// DefaultListLimit caps ListRuns when the filter sets no limit.
const DefaultListLimit = 100

// Store defines the persistence interface for computations.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, spec model.TurbineSpec) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.Result) error
	FailRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Indicator cache
	GetCachedIndicator(ctx context.Context, key string) ([]byte, error)
	SetCachedIndicator(ctx context.Context, key string, data []byte, ttl time.Duration) error
	DeleteExpiredIndicators(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func listLimit(f RunFilter) int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
