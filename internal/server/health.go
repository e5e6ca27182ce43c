package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the status of a health check.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one dependency probe.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker probes one dependency.
type HealthChecker func() CheckResult

// HealthOptions configures the health endpoints.
type HealthOptions struct {
	ServiceName    string
	ServiceVersion string
	StartTime      time.Time
	Checks         map[string]HealthChecker
}

// RegisterHealthRoutes adds the health endpoints:
//   - GET  /health        full status with dependency checks
//   - HEAD /health        lightweight probe for load balancers
//   - GET  /health/live   liveness, always 200 while the process serves
//   - GET  /health/ready  readiness, 503 when a critical dependency is down
func RegisterHealthRoutes(router *gin.Engine, opts HealthOptions) {
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}

	router.GET("/health", healthHandler(opts))
	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": HealthStatusHealthy})
	})
	router.GET("/health/ready", readyHandler(opts))
}

func healthHandler(opts HealthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: opts.ServiceName,
			Version: opts.ServiceVersion,
			Uptime:  time.Since(opts.StartTime).Round(time.Second).String(),
		}

		if len(opts.Checks) > 0 {
			response.Checks = make(map[string]CheckResult, len(opts.Checks))
			for name, checker := range opts.Checks {
				result := checker()
				response.Checks[name] = result

				if result.Status == HealthStatusUnhealthy {
					response.Status = HealthStatusUnhealthy
				} else if result.Status == HealthStatusDegraded && response.Status == HealthStatusHealthy {
					response.Status = HealthStatusDegraded
				}
			}
		}

		statusCode := http.StatusOK
		if response.Status == HealthStatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, response)
	}
}

// readyHandler reports readiness. A degraded dependency still counts as
// ready; only an unhealthy one takes the service out of rotation.
func readyHandler(opts HealthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := HealthStatusHealthy
		for _, checker := range opts.Checks {
			if checker().Status == HealthStatusUnhealthy {
				status = HealthStatusUnhealthy
				break
			}
		}

		statusCode := http.StatusOK
		if status == HealthStatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, gin.H{"status": status})
	}
}

// DatabaseHealthChecker probes Postgres. The database is critical, so a
// failure reports unhealthy.
func DatabaseHealthChecker(pingFunc func() error) HealthChecker {
	return dependencyChecker("database", pingFunc, HealthStatusUnhealthy)
}

// RedisHealthChecker probes Redis. Event publishing degrades without it but
// runs still execute, so a failure reports degraded.
func RedisHealthChecker(pingFunc func() error) HealthChecker {
	return dependencyChecker("redis", pingFunc, HealthStatusDegraded)
}

// ArchiveHealthChecker probes the problem archive. A failed probe degrades
// the service; scheduled runs will retry on their own.
func ArchiveHealthChecker(pingFunc func() error) HealthChecker {
	return dependencyChecker("archive", pingFunc, HealthStatusDegraded)
}

func dependencyChecker(name string, pingFunc func() error, onFailure HealthStatus) HealthChecker {
	return func() CheckResult {
		start := time.Now()
		err := pingFunc()
		latency := time.Since(start)

		if err != nil {
			return CheckResult{
				Status:  onFailure,
				Message: name + " connection failed",
				Latency: latency.String(),
			}
		}

		return CheckResult{
			Status:  HealthStatusHealthy,
			Message: name + " connection OK",
			Latency: latency.String(),
		}
	}
}
