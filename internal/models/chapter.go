// Package models defines core data structures for chapters, analyses, and story exports.
package models

import "time"

// Chapter is one unit of the story, produced from one uploaded image.
type Chapter struct {
	ID            string    `json:"id" db:"id"`
	UserID        *string   `json:"userId" db:"user_id"`
	ImageURL      string    `json:"imageUrl" db:"image_url"`
	Narrative     string    `json:"narrative" db:"narrative"`
	Connections   []string  `json:"connections" db:"connections"`
	Tags          []string  `json:"tags" db:"tags"`
	ChapterNumber int       `json:"chapterNumber" db:"chapter_number"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (c *Chapter) Clone() *Chapter {
	if c == nil {
		return nil
	}
	out := *c
	if c.UserID != nil {
		uid := *c.UserID
		out.UserID = &uid
	}
	out.Connections = append([]string{}, c.Connections...)
	out.Tags = append([]string{}, c.Tags...)
	return &out
}

// Context returns the slice of this chapter that is handed to the analyzer.
func (c *Chapter) Context() ChapterContext {
	return ChapterContext{
		Narrative:     c.Narrative,
		Tags:          append([]string{}, c.Tags...),
		ChapterNumber: c.ChapterNumber,
	}
}

// ChapterInput is the input for creating a chapter. Connections and Tags may be nil.
type ChapterInput struct {
	UserID        *string  `json:"userId,omitempty"`
	ImageURL      string   `json:"imageUrl"`
	Narrative     string   `json:"narrative"`
	Connections   []string `json:"connections,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	ChapterNumber int      `json:"chapterNumber"`
}

// ChapterContext is what the analyzer sees of an earlier chapter.
type ChapterContext struct {
	Narrative     string   `json:"narrative"`
	Tags          []string `json:"tags"`
	ChapterNumber int      `json:"chapterNumber"`
}

// Analysis is the analyzer's answer for one image.
type Analysis struct {
	Narrative   string   `json:"narrative"`
	Connections []string `json:"connections"`
	Tags        []string `json:"tags"`
}

// Normalize replaces nil lists with empty ones.
func (a *Analysis) Normalize() {
	if a.Connections == nil {
		a.Connections = []string{}
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
}
