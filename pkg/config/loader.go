package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("CLOUDPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without CLOUDPULSE_ prefix for Docker/VM deploys
	viper.BindEnv("http.port", "HTTP_PORT", "CLOUDPULSE_HTTP_PORT")
	viper.BindEnv("queue.url", "QUEUE_URL", "CLOUDPULSE_QUEUE_URL")
	viper.BindEnv("queue.driver", "QUEUE_DRIVER", "CLOUDPULSE_QUEUE_DRIVER")
	viper.BindEnv("redis.url", "REDIS_URL", "CLOUDPULSE_REDIS_URL")
	viper.BindEnv("storage.s3.bucket", "S3_BUCKET", "CLOUDPULSE_STORAGE_S3_BUCKET")
	viper.BindEnv("storage.s3.endpoint", "S3_ENDPOINT", "CLOUDPULSE_STORAGE_S3_ENDPOINT")
	viper.BindEnv("storage.s3.access_key_id", "AWS_ACCESS_KEY_ID")
	viper.BindEnv("storage.s3.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	viper.BindEnv("vault.address", "VAULT_ADDR", "CLOUDPULSE_VAULT_ADDRESS")
	viper.BindEnv("vault.token", "VAULT_TOKEN", "CLOUDPULSE_VAULT_TOKEN")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars alone can configure a deploy.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "cloudpulse"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Queue.Driver == "" {
		cfg.Queue.Driver = "nats"
	}
	if cfg.Queue.Subject == "" {
		cfg.Queue.Subject = "telemetry.readings"
	}
	if cfg.Aggregation.Interval == 0 {
		cfg.Aggregation.Interval = time.Hour
	}
	if cfg.Prometheus.Path == "" {
		cfg.Prometheus.Path = "/metrics"
	}
}
