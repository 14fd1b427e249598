package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
	"time"
)

type QueueConfig struct {
	Workers      int           `mapstructure:"workers"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	BackoffBase  time.Duration `mapstructure:"backoff_base"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// Retention is how long completed and failed jobs are kept.
	Retention time.Duration `mapstructure:"retention"`
}

func (config QueueConfig) validate() error {
	var errs []error

	if config.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive"))
	}
	if config.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("max_attempts must be positive"))
	}
	if config.BackoffBase <= 0 {
		errs = append(errs, fmt.Errorf("backoff_base must be positive"))
	}
	if config.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive"))
	}
	if config.Retention <= 0 {
		errs = append(errs, fmt.Errorf("retention must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}
	return nil
}

func (config QueueConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v, map[string]string{
		"queue.workers":      "QUEUE_WORKERS",
		"queue.max_attempts": "QUEUE_MAX_ATTEMPTS",
		"queue.backoff_base": "QUEUE_BACKOFF_BASE",
	})
}
