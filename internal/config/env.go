package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists the settings that may come from the environment.
// Set values win over the YAML file.
type envOverrides struct {
	Debug          *bool    `env:"PHOTOSTORY_DEBUG"`
	Host           string   `env:"PHOTOSTORY_HOST"`
	Port           int      `env:"PHOTOSTORY_PORT"`
	CORSOrigins    []string `env:"PHOTOSTORY_CORS_ORIGINS" envSeparator:","`
	StorageDriver  string   `env:"PHOTOSTORY_STORAGE_DRIVER"`
	DatabasePath   string   `env:"PHOTOSTORY_DATABASE_PATH"`
	Provider       string   `env:"PHOTOSTORY_ANALYZER_PROVIDER"`
	Model          string   `env:"PHOTOSTORY_ANALYZER_MODEL"`
	BaseURL        string   `env:"PHOTOSTORY_ANALYZER_BASE_URL"`
	APIKey         string   `env:"PHOTOSTORY_OPENAI_API_KEY"`
	OpenAIAPIKey   string   `env:"OPENAI_API_KEY"`
	Bucket         string   `env:"PHOTOSTORY_S3_BUCKET"`
	Region         string   `env:"PHOTOSTORY_S3_REGION"`
	Endpoint       string   `env:"PHOTOSTORY_S3_ENDPOINT"`
	WatchDirectory []string `env:"PHOTOSTORY_WATCH_DIRECTORIES" envSeparator:","`
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var raw envOverrides
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if raw.Debug != nil {
		cfg.Debug = *raw.Debug
	}
	setString(&cfg.Server.Host, raw.Host)
	if raw.Port != 0 {
		cfg.Server.Port = raw.Port
	}
	if len(raw.CORSOrigins) > 0 {
		cfg.Server.CORSOrigins = raw.CORSOrigins
	}
	setString(&cfg.Storage.Driver, raw.StorageDriver)
	setString(&cfg.Storage.DatabasePath, raw.DatabasePath)
	setString(&cfg.Analyzer.Provider, raw.Provider)
	setString(&cfg.Analyzer.Model, raw.Model)
	setString(&cfg.Analyzer.BaseURL, raw.BaseURL)
	// The generic OpenAI variable only fills a missing key.
	if cfg.Analyzer.APIKey == "" {
		setString(&cfg.Analyzer.APIKey, raw.OpenAIAPIKey)
	}
	setString(&cfg.Analyzer.APIKey, raw.APIKey)
	setString(&cfg.ObjectStorage.Bucket, raw.Bucket)
	setString(&cfg.ObjectStorage.Region, raw.Region)
	setString(&cfg.ObjectStorage.Endpoint, raw.Endpoint)
	if len(raw.WatchDirectory) > 0 {
		cfg.Watch.Directories = raw.WatchDirectory
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
