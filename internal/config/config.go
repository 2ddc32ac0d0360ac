// Package config loads application settings from an optional yaml config
// file and RIRBLOCK_ prefixed environment variables.
package config

import (
	"errors"
	"strings"

	"github.com/leighmacdonald/rirblock/pkg/log"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var (
	ErrReadConfig   = errors.New("failed to read config file")
	ErrFormatConfig = errors.New("config file format invalid")
)

type Config struct {
	Extract  ExtractConfig  `mapstructure:"extract"`
	Log      LogConfig      `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ExtractConfig struct {
	// Rows written to the store per flush. Larger batches trade crash
	// durability for throughput on multi-gigabyte dumps.
	BatchSize int `mapstructure:"batch_size"`
}

type LogConfig struct {
	Level     log.Level `mapstructure:"level"`
	File      string    `mapstructure:"file"`
	SentryDSN string    `mapstructure:"sentry_dsn"`
}

type DatabaseConfig struct {
	DSN        string `mapstructure:"dsn"`
	LogQueries bool   `mapstructure:"log_queries"`
}

func setDefaultConfigValues() {
	viper.SetDefault("extract.batch_size", 10000)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
	viper.SetDefault("logging.sentry_dsn", "")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.log_queries", false)
}

// Read loads the config, searching the home directory and cwd when no
// explicit file is given. A missing file is not an error; defaults and the
// environment still apply.
func Read(cfgFile string) (Config, error) {
	setDefaultConfigValues()

	if home, errHomeDir := homedir.Dir(); errHomeDir == nil {
		viper.AddConfigPath(home)
	}

	viper.AddConfigPath(".")
	viper.SetConfigName("rirblock")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("rirblock")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if errReadConfig := viper.ReadInConfig(); errReadConfig != nil {
			return Config{}, errors.Join(errReadConfig, ErrReadConfig)
		}
	} else {
		var notFound viper.ConfigFileNotFoundError
		if errReadConfig := viper.ReadInConfig(); errReadConfig != nil && !errors.As(errReadConfig, &notFound) {
			return Config{}, errors.Join(errReadConfig, ErrReadConfig)
		}
	}

	var config Config
	if errUnmarshal := viper.Unmarshal(&config); errUnmarshal != nil {
		return Config{}, errors.Join(errUnmarshal, ErrFormatConfig)
	}

	if strings.HasPrefix(config.Database.DSN, "pgx://") {
		config.Database.DSN = strings.Replace(config.Database.DSN, "pgx://", "postgres://", 1)
	}

	return config, nil
}
