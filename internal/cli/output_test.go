package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/photostory/internal/models"
)

func sampleChapter() *models.Chapter {
	return &models.Chapter{
		ID:            "c1",
		Narrative:     strings.Repeat("word ", 100),
		Connections:   []string{"Chapter 1: the story continues"},
		Tags:          []string{"cat", "indoor"},
		ChapterNumber: 2,
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestFormatter_ChaptersText(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Format: OutputText, Writer: &buf}
	require.NoError(t, f.Chapters([]*models.Chapter{sampleChapter()}))

	out := buf.String()
	assert.Contains(t, out, "Chapter 2 | c1 | 2024-01-02T03:04:05Z")
	assert.Contains(t, out, "Tags: cat, indoor")
	assert.Contains(t, out, "↳ Chapter 1: the story continues")
	assert.Contains(t, out, "...", "list output truncates long narratives")
}

func TestFormatter_EmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Formatter{Format: OutputText, Writer: &buf}).Chapters(nil))
	assert.Equal(t, "No chapters yet.\n", buf.String())

	buf.Reset()
	require.NoError(t, (&Formatter{Format: OutputJSON, Writer: &buf}).Chapters(nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestFormatter_ChapterTextIsFull(t *testing.T) {
	var buf bytes.Buffer
	c := sampleChapter()
	require.NoError(t, (&Formatter{Format: OutputText, Writer: &buf}).Chapter(c))
	assert.Contains(t, buf.String(), c.Narrative)
}

func TestFormatter_Story(t *testing.T) {
	story := &models.StoryExport{
		Title:     models.StoryTitle(1),
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Chapters:  []models.ExportedChapter{{ChapterNumber: 1, Narrative: "A cat sits on a mat"}},
	}
	var buf bytes.Buffer
	require.NoError(t, (&Formatter{Format: OutputText, Writer: &buf}).Story(story))
	assert.Contains(t, buf.String(), "Visual Story - 1 Chapters")
	assert.Contains(t, buf.String(), "Chapter 1\nA cat sits on a mat\nTags: -")
}
