package safety

import "regexp"

// unsafeActionPatterns detect action-implying language: an imperative verb
// followed by an object. Evaluated in order; keep the order fixed.
var unsafeActionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bexecute\s+(?:the\s+|a\s+|an\s+|this\s+|that\s+|all\s+)?[\w-]+`),
	regexp.MustCompile(`(?i)\brun\s+(?:the\s+|a\s+|an\s+|this\s+|that\s+|all\s+)?[\w-]+`),
	regexp.MustCompile(`(?i)\bmodify\s+(?:the\s+|a\s+|an\s+|this\s+|that\s+|all\s+)?[\w-]+`),
	regexp.MustCompile(`(?i)\bdelete\s+(?:the\s+|a\s+|an\s+|this\s+|that\s+|all\s+)?[\w-]+`),
	regexp.MustCompile(`(?i)\bcreate\s+(?:the\s+|a\s+|an\s+|this\s+|that\s+|all\s+)?[\w-]+`),
	regexp.MustCompile(`(?i)\binstall\s+(?:the\s+|a\s+|an\s+|this\s+|that\s+|all\s+)?[\w-]+`),
	regexp.MustCompile(`(?i)\benable\s+(?:the\s+|a\s+|an\s+|this\s+|that\s+|all\s+)?[\w-]+`),
	regexp.MustCompile(`(?i)\bdisable\s+(?:the\s+|a\s+|an\s+|this\s+|that\s+|all\s+)?[\w-]+`),
	regexp.MustCompile(`(?i)\breset\s+(?:the\s+|a\s+|an\s+|this\s+|that\s+|all\s+)?[\w-]+`),
	regexp.MustCompile(`(?i)\bapply\s+(?:the\s+|a\s+|an\s+|this\s+|that\s+|all\s+)?[\w-]+`),
}

// phraseReplacements rewrite common compound imperatives wholesale before
// the single-verb substitution runs.
var phraseReplacements = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\bexecute the script\b`), "review the script"},
	{regexp.MustCompile(`(?i)\brun the (script|job|command)\b`), "review the $1"},
	{regexp.MustCompile(`(?i)\bdelete all\b`), "consider removal of all"},
	{regexp.MustCompile(`(?i)\brestart the (service|server|system)\b`), "review the state of the $1"},
	{regexp.MustCompile(`(?i)\bapply the (fix|patch|change)\b`), "review the proposed $1"},
	{regexp.MustCompile(`(?i)\breset the (password|credentials?)\b`), "request a reset of the $1 through the approved channel"},
}

// advisoryVerbs substitutes remaining imperative verbs with advisory
// phrasing. The advisory forms deliberately avoid re-matching the action
// patterns above.
var advisoryVerbs = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\bexecute\b`), "consider reviewing"},
	{regexp.MustCompile(`(?i)\brun\b`), "consider reviewing"},
	{regexp.MustCompile(`(?i)\bmodify\b`), "consider a change to"},
	{regexp.MustCompile(`(?i)\bdelete\b`), "consider removal of"},
	{regexp.MustCompile(`(?i)\bcreate\b`), "consider adding"},
	{regexp.MustCompile(`(?i)\binstall\b`), "consider staging"},
	{regexp.MustCompile(`(?i)\benable\b`), "consider enabling"},
	{regexp.MustCompile(`(?i)\bdisable\b`), "consider disabling"},
	{regexp.MustCompile(`(?i)\breset\b`), "consider resetting"},
	{regexp.MustCompile(`(?i)\bapply\b`), "consider applying"},
}

var advisoryMarkerRe = regexp.MustCompile(`(?i)\b(consider|review|advisory|recommend)`)

// sensitivePatterns redact values resembling credentials. Replacements are
// stable so redaction is idempotent.
var sensitivePatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\b(password|passwd|api_key|apikey|client_secret|access_token|secret)\s*[=:]\s*[^\s"']+`), "$1=[REDACTED]"},
	{regexp.MustCompile(`\bBearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer [REDACTED]"},
	{regexp.MustCompile(`\bBasic\s+[A-Za-z0-9+/=]{8,}`), "Basic [REDACTED]"},
	{regexp.MustCompile(`\b[A-Za-z0-9]{32,}\b`), "[REDACTED_TOKEN]"},
}
