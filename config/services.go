package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP API.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeAnalysisWorker runs analysis jobs.
	ServiceModeAnalysisWorker ServiceMode = "analysis-worker"
	// ServiceModeReaper runs the scheduled stuck-job reaper.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeAnalysisWorker,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if strings.TrimSpace(servicesStr) == "" {
		return services, errors.New("at least one service must be specified")
	}

	for part := range strings.SplitSeq(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeAnalysisWorker, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, analysis-worker, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// ReaperConfig contains stuck-job reaper configuration.
type ReaperConfig struct {
	// Schedule is a robfig/cron spec, e.g. "@every 5m" or "*/5 * * * *".
	Schedule string `env:"REAPER_SCHEDULE" envDefault:"@every 5m"`

	// StuckAfter is how long a processing job may go without a heartbeat before it is failed.
	StuckAfter time.Duration `env:"REAPER_STUCK_AFTER" envDefault:"10m"`

	// PendingMaxAge is the maximum age for pending jobs before they are marked as failed.
	PendingMaxAge time.Duration `env:"REAPER_PENDING_MAX_AGE" envDefault:"1h"`

	// QueryMaxAge is the age after which active database queries are terminated.
	QueryMaxAge time.Duration `env:"REAPER_QUERY_MAX_AGE" envDefault:"5m"`

	// KillQueries enables terminating long-running queries on each scheduled run.
	KillQueries bool `env:"REAPER_KILL_QUERIES" envDefault:"true"`

	// BatchSize is the maximum number of pending jobs failed per run.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"500"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	r.Schedule = strings.TrimSpace(r.Schedule)
	if _, err := cron.ParseStandard(r.Schedule); err != nil {
		r.Schedule = "@every 5m"
	}
	if r.StuckAfter < time.Minute {
		r.StuckAfter = time.Minute
	}
	if r.PendingMaxAge < 5*time.Minute {
		r.PendingMaxAge = 5 * time.Minute
	}
	if r.QueryMaxAge < 30*time.Second {
		r.QueryMaxAge = 30 * time.Second
	}
	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
