package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
analyzer:
  provider: mock
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("driver should default to memory, got %q", cfg.Storage.Driver)
	}
	if cfg.Analyzer.Provider != ProviderMock {
		t.Errorf("provider = %q", cfg.Analyzer.Provider)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_durations(t *testing.T) {
	path := writeConfig(t, `
analyzer:
  timeout: 5s
upload:
  fetch_timeout: 2s
  max_bytes: 1024
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analyzer.Timeout != 5*time.Second {
		t.Errorf("analyzer timeout = %v", cfg.Analyzer.Timeout)
	}
	if cfg.Upload.FetchTimeout != 2*time.Second || cfg.Upload.MaxBytes != 1024 {
		t.Errorf("upload = %+v", cfg.Upload)
	}
}

func TestLoad_unknownDriver(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: postgres
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: sqlite
  database_path: "./data/chapters.db"
watch:
  directories: ["./inbox"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "chapters.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "inbox") {
		t.Errorf("watch directories = %v", cfg.Watch.Directories)
	}
	if !cfg.Watch.RecursiveOrDefault() {
		t.Error("recursive should default to true")
	}
}

func TestLoad_envOverrides(t *testing.T) {
	t.Setenv("PHOTOSTORY_PORT", "9191")
	t.Setenv("OPENAI_API_KEY", "sk-generic")
	t.Setenv("PHOTOSTORY_OPENAI_API_KEY", "")
	t.Setenv("PHOTOSTORY_S3_BUCKET", "stories")
	path := writeConfig(t, `
server:
  port: 9000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("port = %d, want 9191 from env", cfg.Server.Port)
	}
	if cfg.Analyzer.APIKey != "sk-generic" {
		t.Errorf("api key = %q", cfg.Analyzer.APIKey)
	}
	if !cfg.ObjectStorage.Enabled() {
		t.Error("object storage should be enabled by PHOTOSTORY_S3_BUCKET")
	}
}

func TestLoad_fileKeyWinsOverGenericEnvKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-generic")
	path := writeConfig(t, `
analyzer:
  api_key: sk-file
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analyzer.APIKey != "sk-file" {
		t.Errorf("api key = %q, want sk-file", cfg.Analyzer.APIKey)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Upload.MaxBytes != 10*1024*1024 {
		t.Errorf("default max bytes: got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Analyzer.Provider != ProviderOpenAI || cfg.Analyzer.Model == "" {
		t.Errorf("analyzer defaults: %+v", cfg.Analyzer)
	}
	if cfg.ObjectStorage.Enabled() {
		t.Error("object storage should be disabled without a bucket")
	}
	if cfg.Analyzer.Breaker.MinRequests != 3 {
		t.Errorf("breaker min requests: got %d", cfg.Analyzer.Breaker.MinRequests)
	}
	if len(cfg.Watch.Extensions) == 0 || cfg.Watch.Extensions[0] != ".jpg" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if cfg.Storage.DatabasePath != "" {
		t.Error("memory driver should not get a database path")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{Server: ServerConfig{Host: "localhost", Port: 9090}}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
