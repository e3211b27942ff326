package oracle

import (
	"regexp"
	"strings"
)

var thinkingRe = regexp.MustCompile(`(?s)<thinking>.*?</thinking>`)

var labelPrefixes = []string{"NEGOTIATING", "Negotiating", "negotiating", "Response:", "Alex:", "State:"}

// Sanitize strips model artifacts from a completion: internal-reasoning
// blocks, leaked role-label prefixes and accidental duplicated replies.
func Sanitize(text string) string {
	text = strings.TrimSpace(thinkingRe.ReplaceAllString(text, ""))

	for _, prefix := range labelPrefixes {
		if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
			text = strings.TrimLeft(text[len(prefix):], " :")
		}
	}

	paragraphs := strings.Split(text, "\n\n")
	if len(paragraphs) > 1 && len(paragraphs)%2 == 0 {
		mid := len(paragraphs) / 2
		if equalParagraphs(paragraphs[:mid], paragraphs[mid:]) {
			return strings.TrimSpace(strings.Join(paragraphs[:mid], "\n\n"))
		}
	}

	return strings.TrimSpace(text)
}

func equalParagraphs(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
