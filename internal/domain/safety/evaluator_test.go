package safety_test

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/intent"
	"exception-server/services/assistant-api/internal/domain/safety"
)

func TestEvaluator_Evaluate_CleanAnswer(t *testing.T) {
	e := safety.NewEvaluator(zerolog.Nop())

	out := e.Evaluate(safety.Input{
		Intent: intent.TypeSummary,
		Answer: "Here is a summary of the open exceptions for this week.",
	}, nil)

	if !out.Safe {
		t.Errorf("clean answer must be safe, violations: %v", out.Violations)
	}
	if out.ModifiedAnswer != nil {
		t.Errorf("clean answer must not be rewritten: %q", *out.ModifiedAnswer)
	}
	if out.Mode != safety.ModeReadOnly {
		t.Errorf("mode must be READ_ONLY, got %q", out.Mode)
	}
	if len(out.ActionsAllowed) != 0 {
		t.Errorf("actions allowed must be empty, got %v", out.ActionsAllowed)
	}
}

func TestEvaluator_Evaluate_RewritesActionLanguage(t *testing.T) {
	e := safety.NewEvaluator(zerolog.Nop())

	out := e.Evaluate(safety.Input{
		Intent: intent.TypeRecommendPlaybook,
		Answer: "Execute the script to fix this, then delete all failed records.",
	}, nil)

	if out.Safe {
		t.Error("action-implying answer must not be safe")
	}
	if len(out.Violations) == 0 {
		t.Fatal("expected violations for action phrases")
	}
	if out.ModifiedAnswer == nil {
		t.Fatal("expected a rewritten answer")
	}
	rewritten := *out.ModifiedAnswer
	lower := strings.ToLower(rewritten)
	if strings.Contains(lower, "execute the script") || strings.Contains(lower, "delete all") {
		t.Errorf("imperatives survived the rewrite: %q", rewritten)
	}
	if !strings.Contains(lower, "review") && !strings.Contains(lower, "consider") {
		t.Errorf("rewrite should use advisory phrasing: %q", rewritten)
	}
}

func TestEvaluator_Evaluate_RedactsCredentials(t *testing.T) {
	e := safety.NewEvaluator(zerolog.Nop())

	out := e.Evaluate(safety.Input{
		Intent: intent.TypeExplain,
		Answer: `The integration failed because api_key=sk-live-2219 expired.`,
	}, nil)

	if !out.Redacted {
		t.Fatal("expected redaction flag")
	}
	if out.ModifiedAnswer == nil {
		t.Fatal("expected a modified answer")
	}
	if strings.Contains(*out.ModifiedAnswer, "sk-live-2219") {
		t.Errorf("credential survived redaction: %q", *out.ModifiedAnswer)
	}
	if !strings.Contains(*out.ModifiedAnswer, "[REDACTED]") {
		t.Errorf("expected redaction marker: %q", *out.ModifiedAnswer)
	}
	// Redaction alone is a warning, not a violation.
	if !out.Safe {
		t.Errorf("redaction must not make the answer unsafe: %v", out.Violations)
	}
	if len(out.Warnings) == 0 {
		t.Error("expected a redaction warning")
	}
}

func TestEvaluator_Evaluate_RedactionIsIdempotent(t *testing.T) {
	e := safety.NewEvaluator(zerolog.Nop())

	first := e.Evaluate(safety.Input{
		Intent: intent.TypeExplain,
		Answer: "token: Bearer abc123def456 was rejected",
	}, nil)
	if first.ModifiedAnswer == nil {
		t.Fatal("expected redaction on first pass")
	}

	second := e.Evaluate(safety.Input{
		Intent: intent.TypeExplain,
		Answer: *first.ModifiedAnswer,
	}, nil)
	if second.Redacted {
		t.Error("second pass over redacted text must change nothing")
	}
	if second.ModifiedAnswer != nil {
		t.Errorf("second pass rewrote stable markers: %q", *second.ModifiedAnswer)
	}
}

func TestEvaluator_Evaluate_BulletsOnlyWarn(t *testing.T) {
	e := safety.NewEvaluator(zerolog.Nop())

	out := e.Evaluate(safety.Input{
		Intent:  intent.TypeRecommendPlaybook,
		Answer:  "Consider reviewing the tolerance policy first.",
		Bullets: []string{"Run the reconciliation job manually"},
	}, nil)

	if !out.Safe {
		t.Errorf("bullet phrases must not be violations: %v", out.Violations)
	}
	if len(out.Warnings) == 0 {
		t.Error("expected a warning for the action-implying bullet")
	}
}

func TestEvaluator_Evaluate_BlockedTerms(t *testing.T) {
	e := safety.NewEvaluator(zerolog.Nop())

	out := e.Evaluate(safety.Input{
		Intent: intent.TypeSummary,
		Answer: "The Acme Corp account triggered most exceptions.",
	}, &safety.Policy{BlockedTerms: []string{"acme corp"}})

	if out.Safe {
		t.Error("blocked term must be a violation")
	}
	if out.ModifiedAnswer == nil {
		t.Fatal("expected masking rewrite")
	}
	if strings.Contains(strings.ToLower(*out.ModifiedAnswer), "acme corp") {
		t.Errorf("blocked term survived: %q", *out.ModifiedAnswer)
	}
	if !strings.Contains(*out.ModifiedAnswer, "[BLOCKED]") {
		t.Errorf("expected mask marker: %q", *out.ModifiedAnswer)
	}
}

func TestEvaluator_Evaluate_ClaimedWriteAccessIsViolation(t *testing.T) {
	e := safety.NewEvaluator(zerolog.Nop())

	out := e.Evaluate(safety.Input{
		Intent:         intent.TypeSummary,
		Answer:         "All good.",
		ClaimedMode:    "READ_WRITE",
		ClaimedActions: []string{"update_case"},
	}, nil)

	if out.Safe {
		t.Error("claimed write access must be a violation")
	}
	if out.Mode != safety.ModeReadOnly {
		t.Errorf("mode must stay READ_ONLY, got %q", out.Mode)
	}
	if len(out.ActionsAllowed) != 0 {
		t.Errorf("actions allowed must stay empty, got %v", out.ActionsAllowed)
	}
	if len(out.Violations) != 2 {
		t.Errorf("expected mode and actions violations, got %v", out.Violations)
	}
}
