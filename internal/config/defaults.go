package config

import "time"

// DefaultMaxImageBytes is the upload bound for a single photo.
const DefaultMaxImageBytes = 10 * 1024 * 1024

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 2 * time.Minute
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverMemory
	}
	if cfg.Storage.Driver == DriverSQLite && cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/photostory/data/chapters.db"
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = DefaultMaxImageBytes
	}
	if cfg.Upload.FetchTimeout == 0 {
		cfg.Upload.FetchTimeout = 30 * time.Second
	}
	if cfg.Analyzer.Provider == "" {
		cfg.Analyzer.Provider = ProviderOpenAI
	}
	if cfg.Analyzer.BaseURL == "" {
		cfg.Analyzer.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Analyzer.Model == "" {
		cfg.Analyzer.Model = "gpt-4o"
	}
	if cfg.Analyzer.MaxTokens == 0 {
		cfg.Analyzer.MaxTokens = 1024
	}
	if cfg.Analyzer.Timeout == 0 {
		cfg.Analyzer.Timeout = 60 * time.Second
	}
	applyBreakerDefaults(&cfg.Analyzer.Breaker)
	if cfg.ObjectStorage.Region == "" {
		cfg.ObjectStorage.Region = "us-east-1"
	}
	if cfg.ObjectStorage.Prefix == "" {
		cfg.ObjectStorage.Prefix = "uploads"
	}
	if cfg.ObjectStorage.URLExpiry == 0 {
		cfg.ObjectStorage.URLExpiry = 15 * time.Minute
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

func applyBreakerDefaults(b *BreakerConfig) {
	if b.MaxRequests == 0 {
		b.MaxRequests = 1
	}
	if b.Interval == 0 {
		b.Interval = time.Minute
	}
	if b.Timeout == 0 {
		b.Timeout = 30 * time.Second
	}
	if b.FailureThreshold == 0 {
		b.FailureThreshold = 0.6
	}
	if b.MinRequests == 0 {
		b.MinRequests = 3
	}
}
