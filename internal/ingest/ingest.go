// Package ingest turns drop-folder image files into chapters.
package ingest

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/photostory/internal/fileid"
	"github.com/hyperjump/photostory/internal/models"
)

// Outcomes reported to Metrics.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// ChapterAdder is the part of chaptering.Service the ingester needs.
type ChapterAdder interface {
	AddChapter(ctx context.Context, data []byte, imageURL string) (*models.Chapter, error)
}

// Metrics receives one outcome per processed file.
type Metrics interface {
	FileIngested(outcome string)
}

// Ingester reads files and adds each distinct image once per story.
type Ingester struct {
	adder   ChapterAdder
	metrics Metrics
	logger  *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{} // fileid.ContentID of ingested images
}

// New returns an ingester. metrics and logger may be nil.
func New(adder ChapterAdder, metrics Metrics, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{
		adder:   adder,
		metrics: metrics,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
}

// IngestFile adds path as the next chapter. It returns (nil, nil) when the same
// content was already ingested since the last Reset.
func (in *Ingester) IngestFile(ctx context.Context, path string) (*models.Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		in.record(OutcomeFailed)
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	id := fileid.ContentID(data)

	in.mu.Lock()
	if _, dup := in.seen[id]; dup {
		in.mu.Unlock()
		in.record(OutcomeDuplicate)
		in.logger.Debug("skipping already ingested image", zap.String("path", path))
		return nil, nil
	}
	in.seen[id] = struct{}{}
	in.mu.Unlock()

	chapter, err := in.adder.AddChapter(ctx, data, "")
	if err != nil {
		in.Forget(id)
		in.record(OutcomeFailed)
		return nil, fmt.Errorf("ingest %s: %w", path, err)
	}
	// a story reset may have cleared the mark while AddChapter waited.
	in.mu.Lock()
	in.seen[id] = struct{}{}
	in.mu.Unlock()
	in.record(OutcomeCreated)
	in.logger.Info("ingested image",
		zap.String("path", path),
		zap.Int("chapter_number", chapter.ChapterNumber),
	)
	return chapter, nil
}

// Handle is a watcher.Handler: it ingests path and logs failures.
func (in *Ingester) Handle(ctx context.Context) func(path string) {
	return func(path string) {
		if _, err := in.IngestFile(ctx, path); err != nil {
			in.logger.Warn("drop-folder ingest failed", zap.String("path", path), zap.Error(err))
		}
	}
}

// Forget drops one content id so the same image can be ingested again.
func (in *Ingester) Forget(id string) {
	in.mu.Lock()
	delete(in.seen, id)
	in.mu.Unlock()
}

// Reset forgets every ingested image. Registered as a story reset hook.
func (in *Ingester) Reset() {
	in.mu.Lock()
	in.seen = make(map[string]struct{})
	in.mu.Unlock()
}

func (in *Ingester) record(outcome string) {
	if in.metrics != nil {
		in.metrics.FileIngested(outcome)
	}
}
