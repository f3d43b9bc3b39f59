// Package parser extracts #hashtags from free-text journal notes.
package parser

import (
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([\p{L}][\p{L}\p{N}_/-]*)`)

// Result holds the output of parsing a note.
type Result struct {
	Text string
	Tags []string
}

// Parse trims the note and collects its hashtags, lower-cased and
// deduplicated in order of first appearance.
func Parse(note string) Result {
	text := strings.TrimSpace(note)
	return Result{Text: text, Tags: extractTags(text)}
}

// Tags is shorthand for Parse(note).Tags.
func Tags(note string) []string {
	return Parse(note).Tags
}

func extractTags(text string) []string {
	matches := tagRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		t := strings.ToLower(m[1])
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
