package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/photostory/internal/models"
)

// MemoryStorage implements Storage with a map guarded by a RWMutex.
// Nothing survives a process restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	chapters map[string]*models.Chapter
	numbers  map[int]string // chapter number -> id
	now      func() time.Time
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		chapters: make(map[string]*models.Chapter),
		numbers:  make(map[int]string),
		now:      time.Now,
	}
}

// CreateChapter stores a new chapter. Fails only on an invalid or duplicate chapter number.
func (m *MemoryStorage) CreateChapter(ctx context.Context, input *models.ChapterInput) (*models.Chapter, error) {
	if input.ChapterNumber < 1 {
		return nil, ErrInvalidChapterNumber
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.numbers[input.ChapterNumber]; taken {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateChapterNumber, input.ChapterNumber)
	}
	c := newChapter(uuid.New().String(), input)
	c.CreatedAt = m.now().UTC()
	m.chapters[c.ID] = c
	m.numbers[c.ChapterNumber] = c.ID
	return c.Clone(), nil
}

// ListChapters returns every chapter ascending by chapter number.
func (m *MemoryStorage) ListChapters(ctx context.Context) ([]*models.Chapter, error) {
	m.mu.RLock()
	out := make([]*models.Chapter, 0, len(m.chapters))
	for _, c := range m.chapters {
		out = append(out, c.Clone())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].ChapterNumber < out[j].ChapterNumber
	})
	return out, nil
}

// GetChapter returns a chapter by id.
func (m *MemoryStorage) GetChapter(ctx context.Context, id string) (*models.Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.Clone(), nil
}

// DeleteAllChapters empties the store.
func (m *MemoryStorage) DeleteAllChapters(ctx context.Context) error {
	m.mu.Lock()
	m.chapters = make(map[string]*models.Chapter)
	m.numbers = make(map[int]string)
	m.mu.Unlock()
	return nil
}

// CountChapters returns the number of stored chapters.
func (m *MemoryStorage) CountChapters(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.chapters)), nil
}

// Close is a no-op.
func (m *MemoryStorage) Close() error {
	return nil
}
