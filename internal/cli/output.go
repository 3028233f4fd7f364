package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hyperjump/photostory/internal/models"
	"github.com/hyperjump/photostory/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const narrativePreview = 200

// Formatter writes command results in the configured format.
type Formatter struct {
	Format OutputFormat
	Writer io.Writer
}

// Chapters writes a chapter list. Text output previews each narrative.
func (f *Formatter) Chapters(chapters []*models.Chapter) error {
	if f.Format == OutputJSON {
		if chapters == nil {
			chapters = []*models.Chapter{}
		}
		return f.json(chapters)
	}
	if len(chapters) == 0 {
		fmt.Fprintln(f.Writer, "No chapters yet.")
		return nil
	}
	for _, c := range chapters {
		writeChapter(f.Writer, c, narrativePreview)
	}
	return nil
}

// Chapter writes one chapter in full.
func (f *Formatter) Chapter(c *models.Chapter) error {
	if f.Format == OutputJSON {
		return f.json(c)
	}
	writeChapter(f.Writer, c, 0)
	return nil
}

// Story writes an export document.
func (f *Formatter) Story(story *models.StoryExport) error {
	if f.Format == OutputJSON {
		return f.json(story)
	}
	fmt.Fprintf(f.Writer, "%s\n%s\n\n", story.Title, story.CreatedAt.Format(time.RFC3339))
	for _, c := range story.Chapters {
		fmt.Fprintf(f.Writer, "Chapter %d\n%s\n", c.ChapterNumber, c.Narrative)
		fmt.Fprintf(f.Writer, "Tags: %s\n\n", utils.JoinOrDash(c.Tags))
	}
	return nil
}

// Message writes a status line.
func (f *Formatter) Message(msg string) error {
	if f.Format == OutputJSON {
		return f.json(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(f.Writer, msg)
	return err
}

func (f *Formatter) json(v interface{}) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeChapter(w io.Writer, c *models.Chapter, maxNarrative int) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Chapter %d | %s | %s\n", c.ChapterNumber, c.ID, c.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(c.Narrative, maxNarrative))
	fmt.Fprintf(w, "Tags: %s\n", utils.JoinOrDash(c.Tags))
	for _, conn := range c.Connections {
		fmt.Fprintf(w, "  ↳ %s\n", conn)
	}
	fmt.Fprintln(w)
}
