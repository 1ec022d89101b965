// Package intent classifies a free-text operator message into one of a fixed
// set of intents. Classification is deterministic and auditable: an ordered
// regex table is scored by a generic scorer, with no model call involved.
package intent

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type is the classified purpose of a message.
type Type string

const (
	TypeSummary           Type = "summary"
	TypeExplain           Type = "explain"
	TypeSimilarCases      Type = "similar_cases"
	TypeRecommendPlaybook Type = "recommend_playbook"
	TypeDraftResponse     Type = "draft_response"
	TypeWorkflowView      Type = "workflow_view"
	TypeOther             Type = "other"

	// TypeError is reserved for the orchestrator's fallback response and is
	// never produced by the classifier itself.
	TypeError Type = "error"
)

// Scoring constants. Hand-tuned; keep them together so thresholds are
// swappable without touching control flow.
const (
	matchBonus         = 0.3
	prefixMultiplier   = 1.2
	multiMatchCap      = 0.8
	matchFloor         = 0.5
	minConfidence      = 0.3
	fallbackConfidence = 0.3

	caseMentionBoost  = 0.3
	dateBoost         = 0.2
	fixKeywordBoost   = 0.2
	commKeywordBoost  = 0.2
	workflowBoost     = 0.2
	firstKeywordBoost = 0.15
)

// Result is the outcome of classifying one message. Produced fresh per turn.
type Result struct {
	Type       Type             `json:"intent_type"`
	Confidence float64          `json:"confidence"`
	Params     map[string]any   `json:"extracted_params,omitempty"`
	RawText    string           `json:"raw_text"`
	Scores     map[Type]float64 `json:"scores,omitempty"`
}

// Classifier scores messages against a declarative pattern table.
type Classifier struct {
	patterns []Pattern
}

// NewClassifier builds a classifier over the default pattern table.
func NewClassifier() *Classifier {
	return &Classifier{patterns: DefaultPatterns()}
}

// NewClassifierWithPatterns builds a classifier over a custom ordered table.
func NewClassifierWithPatterns(patterns []Pattern) *Classifier {
	return &Classifier{patterns: patterns}
}

// Classify is a pure function from message text to an intent result.
func (c *Classifier) Classify(text string) Result {
	params := extractParams(text, time.Now().UTC())

	scores := make(map[Type]float64, len(intentOrder))
	for _, it := range intentOrder {
		scores[it] = c.scoreIntent(it, text)
	}

	applyContextBoosts(scores, text, params)
	applyFirstKeywordBoost(scores, text)

	winner := TypeOther
	best := 0.0
	for _, it := range intentOrder {
		if scores[it] > best {
			winner = it
			best = scores[it]
		}
	}

	if best < minConfidence {
		return Result{
			Type:       TypeOther,
			Confidence: fallbackConfidence,
			Params:     params,
			RawText:    text,
			Scores:     scores,
		}
	}

	return Result{
		Type:       winner,
		Confidence: clamp01(best),
		Params:     params,
		RawText:    text,
		Scores:     scores,
	}
}

// scoreIntent evaluates every pattern for one intent against the message.
// Each match contributes weight*(matchLen/msgLen)+bonus, multiplied by 1.2
// when the match starts the message. Additional matches beyond the strongest
// one contribute at most multiMatchCap in total, and any match at all floors
// the score at matchFloor.
func (c *Classifier) scoreIntent(it Type, text string) float64 {
	if len(text) == 0 {
		return 0
	}

	var total, best float64
	matched := 0
	for _, p := range c.patterns {
		if p.Intent != it {
			continue
		}
		loc := p.Regex.FindStringIndex(text)
		if loc == nil {
			continue
		}
		matched++
		score := p.Weight*float64(loc[1]-loc[0])/float64(len(text)) + matchBonus
		if loc[0] == 0 {
			score *= prefixMultiplier
		}
		total += score
		if score > best {
			best = score
		}
	}

	if matched == 0 {
		return 0
	}
	if extra := total - best; extra > multiMatchCap {
		total = best + multiMatchCap
	}
	if total < matchFloor {
		total = matchFloor
	}
	return total
}

func applyContextBoosts(scores map[Type]float64, text string, params map[string]any) {
	if _, ok := params["mentioned_exceptions"]; ok {
		// A mentioned case id points at explain or similar_cases depending
		// on which keywords co-occur with it.
		switch {
		case similarContextRe.MatchString(text):
			scores[TypeSimilarCases] += caseMentionBoost
		case explainContextRe.MatchString(text):
			scores[TypeExplain] += caseMentionBoost
		default:
			scores[TypeExplain] += caseMentionBoost / 2
		}
	}
	if _, ok := params["date_range"]; ok {
		scores[TypeSummary] += dateBoost
	}
	if fixKeywordRe.MatchString(text) {
		scores[TypeRecommendPlaybook] += fixKeywordBoost
	}
	if commKeywordRe.MatchString(text) {
		scores[TypeDraftResponse] += commKeywordBoost
	}
	if workflowKeywordRe.MatchString(text) {
		scores[TypeWorkflowView] += workflowBoost
	}
}

// applyFirstKeywordBoost scans the first five tokens of the lowercased
// message against the priority table and boosts whichever intent's keyword
// appears earliest.
func applyFirstKeywordBoost(scores map[Type]float64, text string) {
	tokens := tokenizerRe.FindAllString(strings.ToLower(text), 5)
	for _, tok := range tokens {
		if it, ok := firstKeywordPriority[tok]; ok {
			scores[it] += firstKeywordBoost
			return
		}
	}
}

func extractParams(text string, now time.Time) map[string]any {
	params := make(map[string]any)

	if ids := caseIDRe.FindAllString(text, -1); len(ids) > 0 {
		params["mentioned_exceptions"] = dedupe(ids)
	}

	if label := dateExpressionRe.FindString(text); label != "" {
		from, to := computeDateRange(strings.ToLower(label), now)
		params["date_range"] = map[string]string{
			"label": strings.ToLower(label),
			"from":  from.Format(time.RFC3339),
			"to":    to.Format(time.RFC3339),
		}
	}

	if sevs := severityRe.FindAllString(text, -1); len(sevs) > 0 {
		lowered := make([]string, 0, len(sevs))
		for _, s := range sevs {
			lowered = append(lowered, strings.ToLower(s))
		}
		params["severities"] = dedupe(lowered)
	}

	if m := rowLimitRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			params["limit"] = n
		}
	}

	return params
}

func computeDateRange(label string, now time.Time) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case label == "today":
		return midnight, now
	case label == "yesterday":
		return midnight.AddDate(0, 0, -1), midnight
	case label == "this week":
		return startOfWeek(midnight), now
	case label == "last week":
		start := startOfWeek(midnight).AddDate(0, 0, -7)
		return start, start.AddDate(0, 0, 7)
	case label == "this month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), now
	case label == "last month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, end
	case strings.HasPrefix(label, "last "):
		var n int
		var unit string
		if _, err := fmt.Sscanf(label, "last %d %s", &n, &unit); err == nil && n > 0 {
			d := time.Duration(n) * durationForUnit(unit)
			return now.Add(-d), now
		}
	}
	return midnight, now
}

func durationForUnit(unit string) time.Duration {
	switch {
	case strings.HasPrefix(unit, "hour"):
		return time.Hour
	case strings.HasPrefix(unit, "week"):
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func startOfWeek(midnight time.Time) time.Time {
	weekday := int(midnight.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return midnight.AddDate(0, 0, -(weekday - 1))
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
