// Package export builds the downloadable JSON snapshot of a story.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/photostory/internal/apperrors"
	"github.com/hyperjump/photostory/internal/models"
	"github.com/hyperjump/photostory/internal/storage"
)

// Exporter reads the chapter store. It never writes.
type Exporter struct {
	store storage.Storage
	now   func() time.Time
}

// NewExporter returns an exporter over store.
func NewExporter(store storage.Storage) *Exporter {
	return &Exporter{store: store, now: time.Now}
}

// Export returns every chapter, ascending by number, wrapped in a titled document.
func (e *Exporter) Export(ctx context.Context) (*models.StoryExport, error) {
	chapters, err := e.store.ListChapters(ctx)
	if err != nil {
		return nil, apperrors.Storage("Failed to export story", err)
	}
	out := &models.StoryExport{
		Title:     models.StoryTitle(len(chapters)),
		CreatedAt: e.now().UTC(),
		Chapters:  make([]models.ExportedChapter, 0, len(chapters)),
	}
	for _, c := range chapters {
		out.Chapters = append(out.Chapters, models.ExportedChapter{
			ChapterNumber: c.ChapterNumber,
			Narrative:     c.Narrative,
			Connections:   c.Connections,
			Tags:          c.Tags,
			CreatedAt:     c.CreatedAt,
		})
	}
	return out, nil
}

// Filename is the suggested download name for an export taken at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("visual-story-%d.json", t.UnixMilli())
}
