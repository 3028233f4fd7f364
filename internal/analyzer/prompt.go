package analyzer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/photostory/internal/models"
)

const systemPrompt = `You are a storyteller who builds one continuous story out of a sequence of photos.
For each new photo, write the next chapter: two to four vivid sentences in the present tense that describe what the photo shows and move the story forward.
Refer back to earlier chapters when the photo shares people, places, objects, colors, or moods with them.
Answer with a JSON object and nothing else, using exactly these keys:
  "narrative": string, the new chapter;
  "connections": array of strings, each naming an earlier chapter and what links it to this photo, for example "Chapter 2: the same red umbrella". Empty when this is the first chapter or nothing connects;
  "tags": array of three to six short lowercase descriptive tags.`

// buildUserPrompt renders the earlier chapters for the analyzer.
func buildUserPrompt(history []models.ChapterContext) string {
	if len(history) == 0 {
		return "This photo opens the story. Write chapter 1."
	}
	var b strings.Builder
	b.WriteString("The story so far:\n")
	for _, c := range history {
		fmt.Fprintf(&b, "Chapter %d: %s", c.ChapterNumber, strings.TrimSpace(c.Narrative))
		if len(c.Tags) > 0 {
			fmt.Fprintf(&b, " (tags: %s)", strings.Join(c.Tags, ", "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nWrite chapter %d for the attached photo.", len(history)+1)
	return b.String()
}
