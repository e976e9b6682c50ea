package health

import (
	"context"
	"database/sql"
	"time"
)

// Service encapsulates health-related checks.
type Service struct {
	DB  *sql.DB // nil when running on the in-memory store
	Env string
}

// NewService constructs a new health service.
func NewService(db *sql.DB, env string) *Service {
	return &Service{DB: db, Env: env}
}

// Report is the payload returned by the health endpoint.
type Report struct {
	Status   string `json:"status"`
	Env      string `json:"env"`
	Database string `json:"database"`
}

// Status checks database connectivity and reports overall service health.
func (s *Service) Status(ctx context.Context) Report {
	report := Report{Status: "ok", Env: s.Env, Database: "memory"}
	if s.DB == nil {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		report.Status = "degraded"
		report.Database = "unreachable"
		return report
	}
	report.Database = "connected"
	return report
}
