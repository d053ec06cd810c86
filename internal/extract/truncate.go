package extract

import "unicode/utf8"

const (
	// maxContentLength caps serialized section content.
	maxContentLength = 4000
	// truncateBudget is the target size when content must be cut; the cut
	// lands at the last sentence boundary at or below this budget.
	truncateBudget = 3800

	ellipsis = "..."
)

func isSentenceTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// boundContent enforces the content size cap. Oversized content is
// reassembled sentence by sentence until the budget would be exceeded; when
// no sentence boundary exists within the budget it is hard-truncated at a
// rune boundary. Both forms carry a trailing ellipsis marker.
func boundContent(s string) string {
	if len(s) <= maxContentLength {
		return s
	}

	lastBoundary := 0
	for i, r := range s {
		if !isSentenceTerminal(r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		if end > truncateBudget {
			break
		}
		lastBoundary = end
	}
	if lastBoundary > 0 {
		return s[:lastBoundary] + ellipsis
	}

	cut := truncateBudget
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
