package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// plain removes every tag and attribute.
	plain = bluemonday.StrictPolicy()

	// rich keeps basic formatting (<p>, <b>, <em>, lists, links) for long-form text.
	rich = bluemonday.UGCPolicy()
)

// Text strips all markup from short user input: titles, annotations, comment bodies.
// Entities escaped by the policy are decoded again so that "Q&A" stays "Q&A".
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(plain.Sanitize(input)))
}

// Rich sanitizes long-form text such as event descriptions while keeping safe formatting.
func Rich(input string) string {
	return strings.TrimSpace(rich.Sanitize(input))
}
