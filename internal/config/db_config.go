package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
)

type dbDriver string

const (
	DriverSqlite   dbDriver = "sqlite"
	DriverPostgres dbDriver = "postgres"
)

type DBConfig struct {
	Driver           dbDriver `mapstructure:"driver"`
	ConnectionString string   `mapstructure:"connection_string"`
}

func (config DBConfig) validate() error {
	var errs []error

	if config.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("missing variable: db connection string"))
	}
	if config.Driver != DriverSqlite && config.Driver != DriverPostgres {
		errs = append(errs, fmt.Errorf("unsupported db driver %q", config.Driver))
	}

	return errors.Join(errs...)
}

func (config DBConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindEnv(v, map[string]string{
		"db.driver":            "DB_DRIVER",
		"db.connection_string": "DB_CONNECTION_STRING",
	})
}
