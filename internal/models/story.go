package models

import (
	"fmt"
	"time"
)

// StoryExport is the downloadable snapshot of the whole story.
type StoryExport struct {
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"createdAt"`
	Chapters  []ExportedChapter `json:"chapters"`
}

// ExportedChapter is a chapter without its id and image.
type ExportedChapter struct {
	ChapterNumber int       `json:"chapterNumber"`
	Narrative     string    `json:"narrative"`
	Connections   []string  `json:"connections"`
	Tags          []string  `json:"tags"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StoryTitle returns the export title for a story with n chapters.
func StoryTitle(n int) string {
	return fmt.Sprintf("Visual Story - %d Chapters", n)
}
