package config

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"os"
)

type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	DB       DBConfig       `mapstructure:"db"`
	AI       AIConfig       `mapstructure:"ai"`
	Renderer RendererConfig `mapstructure:"renderer"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type section interface {
	validate() error
	bindEnvironmentVariables(v *viper.Viper) error
}

var configFile = "./configs/config.yaml"

const aiSection = "AIConfig"

func Get() *Config {

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to load .env file: %v", err)
	}

	file := configFile
	if value, ok := os.LookupEnv("CONFIG_PATH"); ok && value != "" {
		file = value
	}

	config, err := loadConfig(file)
	if err != nil {
		log.Fatal(err)
	}

	return config
}

func loadConfig(file string) (*Config, error) {

	v := viper.New()
	v.SetConfigFile(file)
	v.AutomaticEnv()

	setDefaults(v)

	err := bindEnvironmentVariables(v)
	if err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}

	config := Config{}
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.log_level", string(LevelInfo))
	v.SetDefault("logger.output_file", "./logs/errors.log")
	v.SetDefault("db.driver", string(DriverSqlite))
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("renderer.scratch_dir", "./tmp/pages")
	v.SetDefault("renderer.max_width", 1024)
	v.SetDefault("renderer.timeout", "60s")
	v.SetDefault("queue.workers", 2)
	v.SetDefault("queue.max_attempts", 10)
	v.SetDefault("queue.backoff_base", "60s")
	v.SetDefault("queue.poll_interval", "2s")
	v.SetDefault("queue.retention", "168h")
	v.SetDefault("metrics.port", 8080)
}

func (config Config) sections() map[string]section {
	return map[string]section{
		"LoggerConfig":   config.Logger,
		"DBConfig":       config.DB,
		aiSection:        config.AI,
		"RendererConfig": config.Renderer,
		"QueueConfig":    config.Queue,
		"RedisConfig":    config.Redis,
		"MetricsConfig":  config.Metrics,
	}
}

func (config Config) ValidateAI() error {
	if err := config.AI.validate(); err != nil {
		return fmt.Errorf("%s: %w", aiSection, err)
	}
	return nil
}

func bindEnvironmentVariables(v *viper.Viper) error {
	var errs []error

	for name, s := range (Config{}).sections() {
		if err := s.bindEnvironmentVariables(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

// validate skips the AI section: only the worker talks to the AI service and
// checks it with ValidateAI.
func (config Config) validate() error {
	var errs []error

	for name, s := range lo.OmitByKeys(config.sections(), []string{aiSection}) {
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func bindEnv(v *viper.Viper, bindings map[string]string) error {
	var errs []error
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
