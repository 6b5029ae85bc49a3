package chat

import (
	"strings"
	"unicode/utf8"
)

// BuildContext assembles the retrieved chunks into the context window.
// Memory contents come first (personalization bias), then documents,
// newline-joined, hard-truncated to budget characters by prefix cut.
func BuildContext(memories, documents []RetrievedChunk, budget int) string {
	parts := make([]string, 0, len(memories)+len(documents))
	for _, m := range memories {
		parts = append(parts, m.Content)
	}
	for _, d := range documents {
		parts = append(parts, d.Content)
	}

	context := strings.Join(parts, "\n")
	if budget > 0 && len(context) > budget {
		cut := budget
		// back off to a rune boundary so the cut never splits UTF-8
		for cut > 0 && !utf8.RuneStart(context[cut]) {
			cut--
		}
		context = context[:cut]
	}

	return context
}
