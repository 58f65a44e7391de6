package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"bizdash/internal/infrastructure"
)

// Pinger is a dependency whose availability affects readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	checks    map[string]Pinger
	features  map[string]bool
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
	Features  map[string]bool              `json:"features,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health states.
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusDegraded = "degraded"
)

// NewHealthService creates a health service. checks are pinged on every
// readiness probe; features are reported as given.
func NewHealthService(version, buildTime string, checks map[string]Pinger, features map[string]bool, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if checks == nil {
		checks = map[string]Pinger{}
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		checks:    checks,
		features:  features,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck pings every dependency and reports runtime statistics. Any
// failing dependency marks the service degraded.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.ReadRuntimeStats(hs.startTime)
	status := HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   &stats,
		Services:  make(map[string]ServiceHealth, len(hs.checks)),
		Features:  hs.features,
	}

	for name, check := range hs.checks {
		sh := ServiceHealth{Status: StatusReady}
		if err := check.Ping(ctx); err != nil {
			sh = ServiceHealth{Status: StatusNotReady, Message: err.Error()}
			status.Status = StatusDegraded
			hs.logger.WarnContext(ctx, "health check failed",
				slog.String("service", name),
				slog.String("error", err.Error()))
		}
		status.Services[name] = sh
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"uptime":     time.Since(hs.startTime).Seconds(),
		"start_time": hs.startTime.Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}
