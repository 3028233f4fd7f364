package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/photostory/internal/config"
	"github.com/hyperjump/photostory/internal/models"
	"github.com/hyperjump/photostory/internal/testutil"
)

func TestLoadConfig_explicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photostory.yaml")
	if err := os.WriteFile(path, []byte("analyzer:\n  provider: mock\nserver:\n  port: 9191\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Server.Port != 9191 || cfg.Analyzer.Provider != config.ProviderMock {
		t.Errorf("config not applied: %+v", cfg.Server)
	}
}

func TestLoadConfig_missingExplicitPath(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit config")
	}
}

func TestInitializeComponents_mock(t *testing.T) {
	cfg := &config.Config{}
	cfg.Analyzer.Provider = config.ProviderMock
	config.ApplyDefaults(cfg)

	ctx := context.Background()
	c, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if c.Index == nil || c.Chapters == nil || c.Exporter == nil || c.Ingester == nil {
		t.Fatalf("components missing: %+v", c)
	}
	if c.Uploads != nil {
		t.Error("uploads should be disabled without a bucket")
	}

	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, testutil.PNG(1), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Ingester.IngestFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := c.Chapters.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if ch, err := c.Ingester.IngestFile(ctx, path); err != nil || ch == nil {
		t.Fatalf("reset should let the same photo be ingested again: %v %v", ch, err)
	}
}

func TestInitializeComponents_sqliteReindex(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chapters.db")
	cfg := &config.Config{}
	cfg.Analyzer.Provider = config.ProviderMock
	cfg.Storage.Driver = config.DriverSQLite
	cfg.Storage.DatabasePath = dbPath
	config.ApplyDefaults(cfg)
	ctx := context.Background()

	first, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	ch, err := first.Chapters.AddChapter(ctx, testutil.PNG(1), "")
	if err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	hits, err := second.Chapters.Search(ctx, &models.SearchQuery{Query: ch.Tags[0], Limit: 5}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != ch.ID {
		t.Errorf("restored index hits = %+v", hits)
	}
}

func TestInitializeComponents_openaiRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Analyzer.APIKey = ""
	if _, err := initializeComponents(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Error("expected error without an API key")
	}
}
