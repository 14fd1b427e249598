package config

import (
	"fmt"
	"github.com/spf13/viper"
)

// RedisConfig is optional: an empty Addr disables the Redis fan-out of UI events.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (config RedisConfig) Enabled() bool {
	return config.Addr != ""
}

func (config RedisConfig) validate() error {
	if config.DB < 0 {
		return fmt.Errorf("redis db index must not be negative")
	}
	return nil
}

func (config RedisConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v, map[string]string{
		"redis.addr":     "REDIS_ADDR",
		"redis.password": "REDIS_PASSWORD",
	})
}

type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

func (config MetricsConfig) validate() error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid metrics port %d", config.Port)
	}
	return nil
}

func (config MetricsConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v, map[string]string{"metrics.port": "METRICS_PORT"})
}
