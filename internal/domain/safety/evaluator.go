// Package safety evaluates composed output before it reaches the operator.
// Every answer leaves this package inside a fixed read-only envelope:
// action-implying language is rewritten to advisory phrasing and credential
// lookalikes are redacted.
package safety

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/intent"
)

// ModeReadOnly is the only safety mode this service ever reports.
const ModeReadOnly = "READ_ONLY"

const fallbackApology = "I am unable to safely answer that right now. Please review the exception details directly or contact an administrator."

// Policy carries tenant-specific restrictions.
type Policy struct {
	BlockedTerms []string
}

// Input is the composed payload under evaluation. ClaimedMode and
// ClaimedActions carry any safety assertions embedded upstream; claiming
// anything beyond read-only is itself a violation.
type Input struct {
	Intent         intent.Type
	Answer         string
	Bullets        []string
	ClaimedMode    string
	ClaimedActions []string
}

// Evaluation is the verdict attached to every response. Mode is always
// READ_ONLY and ActionsAllowed is always empty, regardless of input.
type Evaluation struct {
	Safe           bool     `json:"is_safe"`
	Mode           string   `json:"mode"`
	ActionsAllowed []string `json:"actions_allowed"`
	ModifiedAnswer *string  `json:"modified_answer,omitempty"`
	Redacted       bool     `json:"redacted_content"`
	Violations     []string `json:"violations"`
	Warnings       []string `json:"warnings"`
}

// FinalAnswer returns the rewritten answer when one exists, else original.
func (e Evaluation) FinalAnswer(original string) string {
	if e.ModifiedAnswer != nil {
		return *e.ModifiedAnswer
	}
	return original
}

// Evaluator inspects composed output for unsafe or sensitive content.
type Evaluator struct {
	log zerolog.Logger
}

// NewEvaluator builds a safety evaluator.
func NewEvaluator(log zerolog.Logger) *Evaluator {
	return &Evaluator{log: log}
}

// Evaluate always returns a verdict: on any internal failure it degrades to
// a hard-safe fallback rather than letting the error escape.
func (e *Evaluator) Evaluate(in Input, policy *Policy) (out Evaluation) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("safety evaluator recovered")
			apology := fallbackApology
			out = Evaluation{
				Safe:           false,
				Mode:           ModeReadOnly,
				ActionsAllowed: []string{},
				ModifiedAnswer: &apology,
				Violations:     []string{"internal safety evaluation failure"},
				Warnings:       []string{},
			}
		}
	}()

	out = Evaluation{
		Safe:           true,
		Mode:           ModeReadOnly,
		ActionsAllowed: []string{},
		Violations:     []string{},
		Warnings:       []string{},
	}

	answer := in.Answer

	// Action-implying language in the answer is a violation and triggers
	// the rewrite pass.
	actionMatches := findUnsafeActions(answer)
	for _, m := range actionMatches {
		out.Violations = append(out.Violations, fmt.Sprintf("action-implying phrase: %q", m))
	}
	if len(actionMatches) > 0 {
		answer = rewriteAdvisory(answer)
	}

	// Sensitive values are redacted wherever they appear.
	redacted, changed := redactSensitive(answer)
	if changed {
		answer = redacted
		out.Redacted = true
		out.Warnings = append(out.Warnings, "sensitive values were redacted from the answer")
	}

	// Bullets only produce warnings, never violations.
	for _, bullet := range in.Bullets {
		for _, m := range findUnsafeActions(bullet) {
			out.Warnings = append(out.Warnings, fmt.Sprintf("bullet contains action-implying phrase: %q", m))
		}
	}

	// Tenant policy blocked terms are violations and get masked.
	if policy != nil {
		for _, term := range policy.BlockedTerms {
			if term == "" {
				continue
			}
			if containsFold(answer, term) {
				out.Violations = append(out.Violations, fmt.Sprintf("blocked term present: %q", term))
				answer = maskTerm(answer, term)
			}
		}
	}

	// The envelope is invariant. Upstream payloads claiming write access
	// are themselves flagged.
	if in.ClaimedMode != "" && in.ClaimedMode != ModeReadOnly {
		out.Violations = append(out.Violations, fmt.Sprintf("response claimed safety mode %q", in.ClaimedMode))
	}
	if len(in.ClaimedActions) > 0 {
		out.Violations = append(out.Violations, "response claimed allowed actions")
	}

	if answer != in.Answer {
		out.ModifiedAnswer = &answer
	}
	out.Safe = len(out.Violations) == 0
	return out
}

func findUnsafeActions(text string) []string {
	var matches []string
	for _, re := range unsafeActionPatterns {
		matches = append(matches, re.FindAllString(text, -1)...)
	}
	return matches
}

// rewriteAdvisory applies whole-phrase replacements first, then substitutes
// any remaining imperative verbs, and finally appends a disclaimer when no
// advisory wording is present.
func rewriteAdvisory(text string) string {
	for _, pr := range phraseReplacements {
		text = pr.re.ReplaceAllString(text, pr.repl)
	}
	for _, av := range advisoryVerbs {
		text = av.re.ReplaceAllString(text, av.repl)
	}
	if !advisoryMarkerRe.MatchString(text) {
		text += "\n\nAdvisory: review these findings before taking any action."
	}
	return text
}

// redactSensitive replaces credential lookalikes with fixed markers. The
// markers are stable so re-running redaction changes nothing.
func redactSensitive(text string) (string, bool) {
	result := text
	for _, sp := range sensitivePatterns {
		result = sp.re.ReplaceAllString(result, sp.repl)
	}
	return result, result != text
}

func containsFold(text, term string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(term))
}

func maskTerm(text, term string) string {
	mask := "[BLOCKED]"
	lowered := strings.ToLower(text)
	target := strings.ToLower(term)
	var b strings.Builder
	for {
		idx := strings.Index(lowered, target)
		if idx < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:idx])
		b.WriteString(mask)
		text = text[idx+len(term):]
		lowered = lowered[idx+len(target):]
	}
}
