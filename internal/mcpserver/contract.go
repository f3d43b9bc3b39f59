package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/maeum/internal/models"
)

// EntryGuide describes how LLM clients should record moods. It is rendered
// from the mood and nuance registries so it never drifts from them.
func EntryGuide() string {
	var b strings.Builder
	b.WriteString("# Maeum Entry Guide\n\n")
	b.WriteString("Every entry records exactly one mood, an optional note, optional nuances and an optional image.\n\n")

	b.WriteString("## Moods\n\n")
	b.WriteString("Pass the id to `log_mood`. Scores drive every average; higher is better.\n\n")
	b.WriteString("| id | score | glyph | label |\n|----|-------|-------|-------|\n")
	for _, c := range models.Categories() {
		fmt.Fprintf(&b, "| %s | %g | %s | %s |\n", c.ID, c.Score, c.Glyph, c.Label)
	}

	b.WriteString("\n## Nuances\n\n")
	b.WriteString("Each scale is optional. When set, the value must be exactly one of its two poles.\n\n")
	b.WriteString("| scale | negative | positive |\n|-------|----------|----------|\n")
	for _, s := range models.ScaleInfos() {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Key, s.Negative, s.Positive)
	}

	b.WriteString(`
## Notes

- Notes are free text. Words prefixed with ` + "`#`" + ` (e.g. ` + "`#산책`" + `) become searchable tags.
- Keep the user's own words; do not translate or summarise them.

## Images

- Store images with the ` + "`attach_image`" + ` tool first, then pass the returned ` + "`image`" + ` path to ` + "`log_mood`" + `.
- Supported formats: png, jpg, jpeg, gif, webp.

## Privacy

When the journal is protected by a PIN, every journal tool fails until ` + "`unlock`" + ` succeeds.
`)
	return b.String()
}
