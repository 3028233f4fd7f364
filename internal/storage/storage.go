// Package storage defines the persistence interface for story chapters.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/photostory/internal/models"
)

var (
	// ErrNotFound is returned when a chapter id is unknown.
	ErrNotFound = errors.New("chapter not found")
	// ErrDuplicateChapterNumber is returned when a chapter number is already taken.
	ErrDuplicateChapterNumber = errors.New("chapter number already exists")
	// ErrInvalidChapterNumber is returned for non-positive chapter numbers.
	ErrInvalidChapterNumber = errors.New("chapter number must be positive")
)

// Storage owns the lifetime of every chapter in the story.
// Chapters are immutable once created; the only deletion is DeleteAllChapters.
// Implementations return copies, never references to stored values.
type Storage interface {
	// CreateChapter assigns an id and creation time, defaults empty lists, and stores the chapter.
	CreateChapter(ctx context.Context, input *models.ChapterInput) (*models.Chapter, error)
	// ListChapters returns all chapters ascending by chapter number.
	ListChapters(ctx context.Context) ([]*models.Chapter, error)
	GetChapter(ctx context.Context, id string) (*models.Chapter, error)
	DeleteAllChapters(ctx context.Context) error
	CountChapters(ctx context.Context) (int64, error)

	Close() error
}

// newChapter builds the stored value for input.
func newChapter(id string, input *models.ChapterInput) *models.Chapter {
	c := &models.Chapter{
		ID:            id,
		ImageURL:      input.ImageURL,
		Narrative:     input.Narrative,
		Connections:   append([]string{}, input.Connections...),
		Tags:          append([]string{}, input.Tags...),
		ChapterNumber: input.ChapterNumber,
	}
	if input.UserID != nil {
		uid := *input.UserID
		c.UserID = &uid
	}
	return c
}
