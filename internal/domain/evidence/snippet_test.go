package evidence

import (
	"strings"
	"testing"
)

func TestExtractSnippet(t *testing.T) {
	t.Run("short content passes through", func(t *testing.T) {
		got := ExtractSnippet("short policy text", "policy", 100)
		if got != "short policy text" {
			t.Errorf("unexpected snippet: %q", got)
		}
	})

	t.Run("centres on query terms", func(t *testing.T) {
		content := strings.Repeat("filler words here and there. ", 20) +
			"The tolerance threshold for quantity mismatch is two percent. " +
			strings.Repeat("more trailing filler text. ", 20)
		got := ExtractSnippet(content, "tolerance threshold", 120)
		if !strings.Contains(strings.ToLower(got), "tolerance") {
			t.Errorf("snippet missed the query term: %q", got)
		}
		if len(got) > 120+3 {
			t.Errorf("snippet exceeds bound: %d", len(got))
		}
	})

	t.Run("falls back to leading sentence when no term matches", func(t *testing.T) {
		content := "First sentence ends here. " + strings.Repeat("unrelated padding text ", 30)
		got := ExtractSnippet(content, "zzzzz", 100)
		if !strings.HasPrefix(got, "First sentence ends here.") {
			t.Errorf("expected leading sentence fallback, got %q", got)
		}
	})

	t.Run("truncation lands on a word boundary", func(t *testing.T) {
		content := strings.Repeat("tolerance ", 100)
		got := ExtractSnippet(content, "tolerance", 95)
		if !strings.HasSuffix(got, "...") {
			t.Errorf("expected ellipsis, got %q", got)
		}
		trimmed := strings.TrimSuffix(got, "...")
		if strings.HasSuffix(trimmed, " ") {
			t.Errorf("dangling whitespace before ellipsis: %q", got)
		}
	})
}
