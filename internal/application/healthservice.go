package application

import (
	"context"
	"log/slog"
	"time"
)

// Pinger is satisfied by the database handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus values reported by HealthService.
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// HealthReport is the liveness view returned by the health endpoint.
type HealthReport struct {
	Status    string
	Database  string
	Platforms []string
	CheckedAt time.Time
}

// HealthService reports whether the store is reachable and which platforms
// have a budget client wired.
type HealthService struct {
	db      Pinger
	clients *BudgetClientProvider
	logger  *slog.Logger
}

// NewHealthService creates a new HealthService with the required dependencies.
func NewHealthService(db Pinger, clients *BudgetClientProvider, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		db:      db,
		clients: clients,
		logger:  logger,
	}
}

// Check pings the database and assembles a HealthReport. A database failure
// degrades the report; it is never returned as an error.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:    HealthStatusOK,
		Database:  HealthStatusOK,
		Platforms: s.clients.Platforms(),
		CheckedAt: time.Now().UTC(),
	}

	if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("health check: database unreachable", "error", err)
		report.Status = HealthStatusDegraded
		report.Database = err.Error()
	}

	return report
}
