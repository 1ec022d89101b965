package intent_test

import (
	"testing"

	"exception-server/services/assistant-api/internal/domain/intent"
)

func TestClassifier_Classify(t *testing.T) {
	classifier := intent.NewClassifier()

	tests := []struct {
		name          string
		text          string
		expectedType  intent.Type
		minConfidence float64
	}{
		{
			name:          "summary with date expression",
			text:          "Summarize today's exceptions",
			expectedType:  intent.TypeSummary,
			minConfidence: 0.7,
		},
		{
			name:          "explain with case id",
			text:          "Why was EX-123 classified as high severity?",
			expectedType:  intent.TypeExplain,
			minConfidence: 0.5,
		},
		{
			name:          "similar cases with case id",
			text:          "Find similar cases to EX-99",
			expectedType:  intent.TypeSimilarCases,
			minConfidence: 0.5,
		},
		{
			name:          "playbook recommendation",
			text:          "Recommend a playbook for this quantity mismatch",
			expectedType:  intent.TypeRecommendPlaybook,
			minConfidence: 0.5,
		},
		{
			name:          "draft response",
			text:          "Draft an email to the vendor about the short shipment",
			expectedType:  intent.TypeDraftResponse,
			minConfidence: 0.5,
		},
		{
			name:          "workflow view",
			text:          "Show the workflow status for open exceptions",
			expectedType:  intent.TypeWorkflowView,
			minConfidence: 0.5,
		},
		{
			name:          "unrelated text falls back to other",
			text:          "the quick brown fox jumps over the lazy dog",
			expectedType:  intent.TypeOther,
			minConfidence: 0.29,
		},
		{
			name:          "empty message",
			text:          "",
			expectedType:  intent.TypeOther,
			minConfidence: 0.29,
		},
		{
			name:          "punctuation only",
			text:          "???!!!",
			expectedType:  intent.TypeOther,
			minConfidence: 0.29,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.text)
			if result.Type != tt.expectedType {
				t.Errorf("expected intent %q, got %q (scores: %v)", tt.expectedType, result.Type, result.Scores)
			}
			if result.Confidence < tt.minConfidence {
				t.Errorf("expected confidence >= %v, got %v", tt.minConfidence, result.Confidence)
			}
			if result.Confidence < 0 || result.Confidence > 1 {
				t.Errorf("confidence out of range: %v", result.Confidence)
			}
			if result.RawText != tt.text {
				t.Errorf("raw text not preserved: %q", result.RawText)
			}
		})
	}
}

func TestClassifier_Classify_Deterministic(t *testing.T) {
	classifier := intent.NewClassifier()
	const text = "Why was EX-123 flagged, and has something similar happened before?"

	first := classifier.Classify(text)
	for i := 0; i < 10; i++ {
		again := classifier.Classify(text)
		if again.Type != first.Type {
			t.Fatalf("classification not deterministic: %q vs %q", first.Type, again.Type)
		}
		if again.Confidence != first.Confidence {
			t.Fatalf("confidence not deterministic: %v vs %v", first.Confidence, again.Confidence)
		}
	}
}

func TestClassifier_ExtractedParams(t *testing.T) {
	classifier := intent.NewClassifier()

	t.Run("case ids are deduplicated", func(t *testing.T) {
		result := classifier.Classify("Compare EX-123 with EX-456 and EX-123 again")
		ids, ok := result.Params["mentioned_exceptions"].([]string)
		if !ok {
			t.Fatalf("expected mentioned_exceptions, got %v", result.Params)
		}
		if len(ids) != 2 || ids[0] != "EX-123" || ids[1] != "EX-456" {
			t.Errorf("unexpected ids: %v", ids)
		}
	})

	t.Run("date range carries label and bounds", func(t *testing.T) {
		result := classifier.Classify("Summarize today's exceptions")
		dateRange, ok := result.Params["date_range"].(map[string]string)
		if !ok {
			t.Fatalf("expected date_range, got %v", result.Params)
		}
		if dateRange["label"] != "today" {
			t.Errorf("expected label today, got %q", dateRange["label"])
		}
		if dateRange["from"] == "" || dateRange["to"] == "" {
			t.Errorf("expected from/to bounds, got %v", dateRange)
		}
	})

	t.Run("severities and limit", func(t *testing.T) {
		result := classifier.Classify("Show top 10 critical and high exceptions from last week")
		sevs, ok := result.Params["severities"].([]string)
		if !ok || len(sevs) != 2 {
			t.Fatalf("expected two severities, got %v", result.Params["severities"])
		}
		if sevs[0] != "critical" || sevs[1] != "high" {
			t.Errorf("unexpected severities: %v", sevs)
		}
		if limit, ok := result.Params["limit"].(int); !ok || limit != 10 {
			t.Errorf("expected limit 10, got %v", result.Params["limit"])
		}
	})

	t.Run("no params on plain text", func(t *testing.T) {
		result := classifier.Classify("hello there")
		if len(result.Params) != 0 {
			t.Errorf("expected no params, got %v", result.Params)
		}
	})
}

func TestClassifier_BoostsRescueWeakMatches(t *testing.T) {
	classifier := intent.NewClassifier()

	// No pattern matches this message directly; the fix keyword plus the
	// leading-token boost lift recommend_playbook over the fallback threshold.
	result := classifier.Classify("fix this recurring mismatch")
	if result.Type != intent.TypeRecommendPlaybook {
		t.Errorf("expected recommend_playbook, got %q (scores: %v)", result.Type, result.Scores)
	}
	if result.Confidence >= 0.5 {
		t.Errorf("expected weak confidence on boost-only match, got %v", result.Confidence)
	}
}
