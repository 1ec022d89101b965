package evidence

import (
	"regexp"
	"strings"
)

const (
	// DefaultSnippetMaxLen bounds snippets attached to evidence items.
	DefaultSnippetMaxLen = 300

	windowStep = 40
)

var snippetTokenRe = regexp.MustCompile(`[a-z0-9_-]{3,}`)

// ExtractSnippet returns a bounded excerpt of content centred on the query
// terms. When the content fits it is returned unchanged. Otherwise candidate
// windows are scored by how many query terms they contain and how early those
// terms appear; when no term is found the first sentence (or raw prefix) is
// used. Truncated snippets are trimmed to a word boundary with an ellipsis.
func ExtractSnippet(content, query string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSnippetMaxLen
	}
	content = strings.TrimSpace(content)
	if len(content) <= maxLen {
		return content
	}

	terms := snippetTokenRe.FindAllString(strings.ToLower(query), -1)
	lowered := strings.ToLower(content)

	bestStart, bestScore := -1, 0.0
	for start := 0; start < len(content); start += windowStep {
		end := start + maxLen
		if end > len(content) {
			end = len(content)
		}
		window := lowered[start:end]
		score := scoreWindow(window, terms)
		if score > bestScore {
			bestScore = score
			bestStart = start
		}
		if end == len(content) {
			break
		}
	}

	if bestStart < 0 {
		// No query term anywhere: fall back to the leading sentence(s).
		if idx := sentenceEnd(content, maxLen); idx > 0 {
			return strings.TrimSpace(content[:idx])
		}
		return trimToWordBoundary(content, maxLen) + "..."
	}

	snippet := content[bestStart:]
	if bestStart > 0 {
		snippet = "..." + strings.TrimSpace(snippet)
	}
	if len(snippet) > maxLen {
		snippet = trimToWordBoundary(snippet, maxLen) + "..."
	}
	return snippet
}

// scoreWindow counts query term hits, weighting earlier occurrences higher.
func scoreWindow(window string, terms []string) float64 {
	score := 0.0
	for _, term := range terms {
		idx := strings.Index(window, term)
		if idx < 0 {
			continue
		}
		score += 1.0 + (1.0 - float64(idx)/float64(len(window)))
	}
	return score
}

// sentenceEnd returns the index just past the last full sentence that fits
// within maxLen, or 0 when none does.
func sentenceEnd(content string, maxLen int) int {
	limit := maxLen
	if limit > len(content) {
		limit = len(content)
	}
	end := 0
	for i := 0; i < limit; i++ {
		switch content[i] {
		case '.', '!', '?':
			end = i + 1
		}
	}
	return end
}

func trimToWordBoundary(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n,;:")
}
