package scheduler

import (
	"time"

	"github.com/smallbiznis/brokerage/internal/config"
)

const JobOverdueSweep = "overdue_sweep"

// Config controls scheduler intervals and which jobs run.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		JobTimeout:  time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: time.Duration(cfg.Schedule.RunIntervalSeconds) * time.Second,
		JobTimeout:  time.Duration(cfg.Schedule.JobTimeoutSeconds) * time.Second,
		EnabledJobs: cfg.Schedule.Jobs,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
