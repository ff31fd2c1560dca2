// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	MigrateStats = pflag.Bool("migrate-stats", false, "Backfills user stats from existing media records and exits")

	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")

	v.BindEnv("gateway.jwt_secret", "gateway_jwt_secret")

	v.BindEnv("gallery.channel_id", "gallery_channel_id")
	v.BindEnv("gallery.emoji", "gallery_emoji")

	v.BindEnv("database.path", "database_path")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.path", "storage_path")

	v.BindEnv("download.retries", "download_retries")
	v.BindEnv("download.backoff_ms", "download_backoff_ms")
	v.BindEnv("download.timeout_s", "download_timeout_s")

	v.BindEnv("stats.recompute_delay_ms", "stats_recompute_delay_ms")

	v.BindEnv("aws.access_key", "aws_access_key")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.bucket", "aws_bucket")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)

	v.SetDefault("gallery.emoji", "⚡")
	v.SetDefault("gallery.extensions", []string{"jpg", "jpeg", "png", "gif", "webp"})

	v.SetDefault("database.path", "gallery.db")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./images")

	v.SetDefault("download.retries", 3)
	v.SetDefault("download.backoff_ms", 500)
	v.SetDefault("download.timeout_s", 10)

	v.SetDefault("stats.recompute_delay_ms", 1000)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("gateway.jwt_secret") == "" {
		return errors.New("gateway.jwt_secret can't be empty")
	}

	if v.GetString("gallery.channel_id") == "" {
		return errors.New("gallery.channel_id can't be empty")
	}

	if v.GetInt("download.retries") <= 0 {
		return errors.New("download.retries must be bigger than 0")
	}

	switch v.GetString("storage.type") {
	case "s3":
		{
			if v.GetString("aws.access_key") == "" {
				return errors.New("access key can't be empty")
			}
			if v.GetString("aws.secret_access_key") == "" {
				return errors.New("secret access key can't be empty")
			}
			if v.GetString("aws.region") == "" {
				return errors.New("region can't be empty")
			}
			if v.GetString("aws.bucket") == "" {
				return errors.New("bucket can't be empty")
			}
		}
	case "local":
		{
			if v.GetString("storage.path") == "" {
				return errors.New("storage path can't be empty")
			}
		}
	default:
		return errors.New("invalid storage type provided")
	}

	return nil
}
