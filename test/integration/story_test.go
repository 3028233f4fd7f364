// Package integration exercises the full story pipeline: SQLite storage, the keyword
// index, the drop-folder watcher, and the HTTP API together.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/photostory/internal/analyzer"
	"github.com/hyperjump/photostory/internal/chaptering"
	"github.com/hyperjump/photostory/internal/config"
	"github.com/hyperjump/photostory/internal/export"
	"github.com/hyperjump/photostory/internal/ingest"
	"github.com/hyperjump/photostory/internal/keyword"
	"github.com/hyperjump/photostory/internal/metrics"
	"github.com/hyperjump/photostory/internal/models"
	"github.com/hyperjump/photostory/internal/server"
	"github.com/hyperjump/photostory/internal/storage"
	"github.com/hyperjump/photostory/internal/testutil"
	"github.com/hyperjump/photostory/internal/watcher"
)

func getChapters(t *testing.T, baseURL string) []models.Chapter {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/chapters")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out []models.Chapter
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestIntegration_DropFolderStory(t *testing.T) {
	dir := t.TempDir()
	drop := filepath.Join(dir, "drop")

	cfg := &config.Config{}
	cfg.Analyzer.Provider = config.ProviderMock
	cfg.Storage.Driver = config.DriverSQLite
	cfg.Storage.DatabasePath = filepath.Join(dir, "chapters.db")
	config.ApplyDefaults(cfg)

	store, err := storage.New(&cfg.Storage)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	idx, err := keyword.NewBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	collector := metrics.NewCollector()

	svc := chaptering.NewService(store, analyzer.NewMockAnalyzer(), chaptering.Options{
		MaxImageBytes: cfg.Upload.MaxBytes,
		Index:         idx,
		Metrics:       collector,
	})
	in := ingest.New(svc, collector, zap.NewNop())
	svc.OnReset(in.Reset)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := watcher.New(watcher.Config{
		Directories: []string{drop},
		Extensions:  cfg.Watch.Extensions,
		Recursive:   true,
		Debounce:    50 * time.Millisecond,
	}, in.Handle(ctx), zap.NewNop())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	srv := server.NewServer(svc, export.NewExporter(store), nil, collector, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	for i, name := range []string{"one.png", "two.png"} {
		if err := os.WriteFile(filepath.Join(drop, name), testutil.PNG(i), 0644); err != nil {
			t.Fatal(err)
		}
		deadline := time.Now().Add(3 * time.Second)
		for len(getChapters(t, ts.URL)) < i+1 {
			if time.Now().After(deadline) {
				t.Fatalf("chapter %d never appeared", i+1)
			}
			time.Sleep(25 * time.Millisecond)
		}
	}
	// The same photo under another name is not a new chapter.
	if err := os.WriteFile(filepath.Join(drop, "one-again.png"), testutil.PNG(0), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	chapters := getChapters(t, ts.URL)
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	for i, c := range chapters {
		if c.ChapterNumber != i+1 {
			t.Errorf("chapters[%d].chapterNumber = %d", i, c.ChapterNumber)
		}
	}
	if len(chapters[1].Connections) == 0 {
		t.Error("second chapter should connect to the first")
	}

	resp, err := http.Get(ts.URL + "/api/export")
	if err != nil {
		t.Fatal(err)
	}
	var story models.StoryExport
	json.NewDecoder(resp.Body).Decode(&story)
	resp.Body.Close()
	if len(story.Chapters) != len(chapters) {
		t.Errorf("export has %d chapters, list has %d", len(story.Chapters), len(chapters))
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/chapters", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := getChapters(t, ts.URL); len(got) != 0 {
		t.Fatalf("after reset: %d chapters", len(got))
	}

	// After a reset the same photo starts a new story.
	if _, err := in.IngestFile(ctx, filepath.Join(drop, "one.png")); err != nil {
		t.Fatal(err)
	}
	if got := getChapters(t, ts.URL); len(got) != 1 || got[0].ChapterNumber != 1 {
		t.Errorf("after re-ingest: %+v", got)
	}
}
