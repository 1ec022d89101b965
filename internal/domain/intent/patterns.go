package intent

import "regexp"

// Pattern is one (intent, regex, weight) row of the classification table.
// Matching behavior is data, not code: the scorer iterates this table in
// order, and ties between intents are broken by the enumeration order below.
type Pattern struct {
	Intent Type
	Regex  *regexp.Regexp
	Weight float64
}

// intentOrder fixes the tie-break order between intents. Do not reorder:
// classification must stay reproducible across releases.
var intentOrder = []Type{
	TypeSummary,
	TypeExplain,
	TypeSimilarCases,
	TypeRecommendPlaybook,
	TypeDraftResponse,
	TypeWorkflowView,
}

// DefaultPatterns returns the ordered pattern table used by the classifier.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{TypeSummary, regexp.MustCompile(`(?i)\bsummar(?:y|ize|ise|ies)\w*`), 1.0},
		{TypeSummary, regexp.MustCompile(`(?i)\boverview\b`), 0.9},
		{TypeSummary, regexp.MustCompile(`(?i)\bhow many\b`), 0.8},
		{TypeSummary, regexp.MustCompile(`(?i)\breport\b`), 0.6},

		{TypeExplain, regexp.MustCompile(`(?i)\bwhy\b`), 1.0},
		{TypeExplain, regexp.MustCompile(`(?i)\bexplain\w*`), 1.0},
		{TypeExplain, regexp.MustCompile(`(?i)\broot cause\b`), 0.9},
		{TypeExplain, regexp.MustCompile(`(?i)\bclassif(?:y|ied|ication)\b`), 0.8},
		{TypeExplain, regexp.MustCompile(`(?i)\breason\b`), 0.7},
		{TypeExplain, regexp.MustCompile(`(?i)\bwhat happened\b`), 0.7},

		{TypeSimilarCases, regexp.MustCompile(`(?i)\bsimilar\b`), 1.0},
		{TypeSimilarCases, regexp.MustCompile(`(?i)\bhappened before\b`), 0.9},
		{TypeSimilarCases, regexp.MustCompile(`(?i)\blike this\b`), 0.8},
		{TypeSimilarCases, regexp.MustCompile(`(?i)\brelated (?:cases?|exceptions?|incidents?)\b`), 0.8},
		{TypeSimilarCases, regexp.MustCompile(`(?i)\bseen (?:this|that) before\b`), 0.8},

		{TypeRecommendPlaybook, regexp.MustCompile(`(?i)\b(?:recommend|suggest)\w*`), 1.0},
		{TypeRecommendPlaybook, regexp.MustCompile(`(?i)\bplaybook\b`), 1.0},
		{TypeRecommendPlaybook, regexp.MustCompile(`(?i)\bhow (?:do i|to|should i) (?:fix|resolve|handle)\b`), 0.9},
		{TypeRecommendPlaybook, regexp.MustCompile(`(?i)\bremediat\w*`), 0.9},
		{TypeRecommendPlaybook, regexp.MustCompile(`(?i)\bnext steps?\b`), 0.7},

		{TypeDraftResponse, regexp.MustCompile(`(?i)\bdraft\b`), 1.0},
		{TypeDraftResponse, regexp.MustCompile(`(?i)\bwrite (?:a|an|the)\b`), 0.9},
		{TypeDraftResponse, regexp.MustCompile(`(?i)\b(?:reply|respond) to\b`), 0.8},
		{TypeDraftResponse, regexp.MustCompile(`(?i)\b(?:email|message|note) (?:to|for)\b`), 0.8},

		{TypeWorkflowView, regexp.MustCompile(`(?i)\bworkflow\b`), 1.0},
		{TypeWorkflowView, regexp.MustCompile(`(?i)\bprocess (?:view|status|state)\b`), 0.9},
		{TypeWorkflowView, regexp.MustCompile(`(?i)\bwhere (?:is|are) .* in the (?:process|workflow|pipeline)\b`), 0.8},
		{TypeWorkflowView, regexp.MustCompile(`(?i)\bpipeline status\b`), 0.8},
	}
}

// firstKeywordPriority maps leading keywords to the intent they boost. The
// first five tokens of the message are scanned and the earliest hit wins.
var firstKeywordPriority = map[string]Type{
	"summarize": TypeSummary,
	"summarise": TypeSummary,
	"summary":   TypeSummary,
	"overview":  TypeSummary,
	"why":       TypeExplain,
	"explain":   TypeExplain,
	"similar":   TypeSimilarCases,
	"recommend": TypeRecommendPlaybook,
	"suggest":   TypeRecommendPlaybook,
	"fix":       TypeRecommendPlaybook,
	"resolve":   TypeRecommendPlaybook,
	"draft":     TypeDraftResponse,
	"write":     TypeDraftResponse,
	"workflow":  TypeWorkflowView,
	"process":   TypeWorkflowView,
}

// Contextual boost keyword sets.
var (
	explainContextRe  = regexp.MustCompile(`(?i)\b(?:why|reason|classif\w*|explain\w*|cause)\b`)
	similarContextRe  = regexp.MustCompile(`(?i)\b(?:similar|like|related|before)\b`)
	dateExpressionRe  = regexp.MustCompile(`(?i)\b(?:today|yesterday|this week|last week|this month|last month|last \d+ (?:hours?|days?|weeks?))\b`)
	fixKeywordRe      = regexp.MustCompile(`(?i)\b(?:fix|resolve|remediate|handle|help)\b`)
	commKeywordRe     = regexp.MustCompile(`(?i)\b(?:email|reply|respond|message|customer|vendor|stakeholder)\b`)
	workflowKeywordRe = regexp.MustCompile(`(?i)\b(?:workflow|process|approval|stage|pipeline)\b`)
)

// Slot extraction patterns.
var (
	caseIDRe    = regexp.MustCompile(`\b(?:EX|EXC|CASE)-\d+\b`)
	severityRe  = regexp.MustCompile(`(?i)\b(critical|high|medium|low)\b`)
	rowLimitRe  = regexp.MustCompile(`(?i)\b(?:top|first|limit)\s+(\d{1,4})\b`)
	tokenizerRe = regexp.MustCompile(`[a-z0-9_-]+`)
)
