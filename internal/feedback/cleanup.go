package feedback

import (
	"regexp"
	"strings"
)

// The cleanup pipeline is an ordered list of named steps so each rule can be
// tested on its own. Order matters: labels go first (they may sit behind list
// markers), the character allow-set runs before whitespace collapsing so
// stripped glyphs do not leave double spaces behind.
var cleanupSteps = []struct {
	name string
	re   *regexp.Regexp
	repl string
}{
	{name: "labels", re: regexp.MustCompile(`(?i)(?:Encouraging Summary|Area to Improve|Motivational Line)\s*:\s*`), repl: ""},
	{name: "list_prefixes", re: regexp.MustCompile(`(?m)^\s*(?:\d+[.)]\s*|[-*•]\s*|[#*]+)\s*`), repl: ""},
	{name: "disallowed_chars", re: regexp.MustCompile(`[^\w\s.,!?'"]+`), repl: ""},
	{name: "whitespace", re: regexp.MustCompile(`\s+`), repl: " "},
}

// Clean normalizes generated feedback into plain sentences: no labels, list or
// heading markers, no characters outside word characters, whitespace, and
// basic punctuation, with whitespace runs collapsed to single spaces.
// Idempotent: cleaning already-clean text changes nothing.
func Clean(text string) string {
	for _, step := range cleanupSteps {
		text = step.re.ReplaceAllString(text, step.repl)
	}

	return strings.TrimSpace(text)
}
