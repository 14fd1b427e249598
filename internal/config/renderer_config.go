package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
	"time"
)

type RendererConfig struct {
	// BinaryPath overrides pdftoppm lookup when set.
	BinaryPath string        `mapstructure:"binary_path"`
	ScratchDir string        `mapstructure:"scratch_dir"`
	MaxWidth   int           `mapstructure:"max_width"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func (config RendererConfig) validate() error {
	var errs []error

	if config.ScratchDir == "" {
		errs = append(errs, fmt.Errorf("missing variable: scratch_dir"))
	}
	if config.MaxWidth <= 0 {
		errs = append(errs, fmt.Errorf("max_width must be positive"))
	}
	if config.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}
	return nil
}

func (config RendererConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v, map[string]string{
		"renderer.binary_path": "PDFTOPPM_PATH",
		"renderer.scratch_dir": "RENDERER_SCRATCH_DIR",
		"renderer.timeout":     "RENDERER_TIMEOUT",
	})
}
