// Package profiling starts continuous profiling against a Pyroscope server
// when the service is configured for it.
package profiling

import (
	"fmt"
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"github.com/amirb101/three-sided-sub001/internal/config"
)

// Profiler wraps a running Pyroscope session. A nil Profiler is valid and
// Stop on it is a no-op, so callers never branch on the enabled flag.
type Profiler struct {
	profiler *pyroscope.Profiler
}

// Start begins continuous profiling when cfg enables it. Returns nil with no
// error when profiling is disabled.
func Start(cfg config.ProfilingConfig, serviceName, version string) (*Profiler, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "three-sided." + serviceName,
		ServerAddress:   cfg.ServerURL,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Tags: map[string]string{
			"environment": cfg.Environment,
			"version":     version,
			"hostname":    hostname(),
			"go_version":  runtime.Version(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope profiler: %w", err)
	}

	return &Profiler{profiler: p}, nil
}

// Stop flushes and stops the profiling session.
func (p *Profiler) Stop() error {
	if p == nil || p.profiler == nil {
		return nil
	}
	return p.profiler.Stop()
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
