// Package compose assembles the answer text, bullet points and citations
// from whatever pipeline artifacts are available for the detected intent.
package compose

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/intent"
	"exception-server/services/assistant-api/internal/domain/knowledge"
	"exception-server/services/assistant-api/internal/domain/playbook"
	"exception-server/services/assistant-api/internal/domain/similarcase"
)

const (
	citationSnippetMaxLen = 200
	maxBullets            = 3
	playbookStepPreview   = 3
)

// Input carries the artifacts available for composition. Any may be absent.
type Input struct {
	Intent         intent.Type
	Query          string
	Evidence       []knowledge.EvidenceItem
	SimilarCases   []similarcase.SimilarCase
	Recommendation *playbook.Recommendation
}

// Citation points the operator at one piece of source material.
type Citation struct {
	SourceType string  `json:"source_type"`
	SourceID   string  `json:"source_id"`
	Title      string  `json:"title"`
	Snippet    string  `json:"snippet"`
	URL        *string `json:"url"`
}

// PlaybookBlock is the UI-clickable recommendation attached to a response.
type PlaybookBlock struct {
	PlaybookID    string          `json:"playbook_id"`
	Name          string          `json:"name"`
	Confidence    float64         `json:"confidence"`
	Steps         []playbook.Step `json:"steps"`
	Rationale     string          `json:"rationale"`
	MatchedFields []string        `json:"matched_fields"`
	NextSteps     []string        `json:"next_steps"`
	Citation      Citation        `json:"citation"`
}

// Composed is an assembled, not-yet-safety-checked response.
type Composed struct {
	Answer    string         `json:"answer"`
	Bullets   []string       `json:"bullets"`
	Citations []Citation     `json:"citations"`
	Playbook  *PlaybookBlock `json:"recommended_playbook,omitempty"`
}

// fallbackBullets are returned when no evidence of any kind is available.
var fallbackBullets = []string{
	"Review the exception details and recent audit events for this tenant.",
	"Search the knowledge base with more specific terms from the exception.",
	"Check whether a remediation playbook exists for this exception type.",
}

// Composer renders intent-specific answer templates.
type Composer struct {
	log zerolog.Logger
}

// NewComposer builds a response composer.
func NewComposer(log zerolog.Logger) *Composer {
	return &Composer{log: log}
}

// Compose assembles the response. It never panics outward: any internal
// failure degrades to a fixed, safe fallback.
func (c *Composer) Compose(in Input) (out Composed) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("composer recovered, returning fallback")
			out = fallbackComposed()
		}
	}()

	out = Composed{
		Answer:    c.answerFor(in),
		Bullets:   c.bulletsFor(in),
		Citations: citationsFor(in.Evidence),
	}
	if in.Recommendation != nil {
		out.Playbook = playbookBlockFor(in.Recommendation)
	}
	return out
}

func (c *Composer) answerFor(in Input) string {
	switch in.Intent {
	case intent.TypeSummary:
		if len(in.Evidence) == 0 {
			return "I could not find any indexed material matching your request yet. The suggestions below may help narrow things down."
		}
		return fmt.Sprintf("Here is a summary based on the %d most relevant sources I found. The strongest match is %q.",
			len(in.Evidence), in.Evidence[0].Title)
	case intent.TypeExplain:
		if len(in.Evidence) == 0 {
			return "I could not find documented context that explains this exception. The cited gaps below suggest where to look next."
		}
		return fmt.Sprintf("Based on %d related sources, the most relevant context is %q. The citations below show the supporting material.",
			len(in.Evidence), in.Evidence[0].Title)
	case intent.TypeSimilarCases:
		if len(in.SimilarCases) == 0 {
			return "I did not find previously resolved cases that resemble this one."
		}
		top := in.SimilarCases[0]
		return fmt.Sprintf("I found %d resolved case(s) that resemble this exception. The closest is %s (similarity %.2f): %s",
			len(in.SimilarCases), top.CaseID, top.Similarity, top.OutcomeSummary)
	case intent.TypeRecommendPlaybook:
		if in.Recommendation == nil {
			return "No remediation playbook reached the confidence threshold for this exception. The general guidance below may still help."
		}
		return fmt.Sprintf("The %q playbook looks applicable (confidence %.2f). %s",
			in.Recommendation.Name, in.Recommendation.Confidence, in.Recommendation.Rationale)
	case intent.TypeDraftResponse:
		return draftAnswer(in)
	case intent.TypeWorkflowView:
		if len(in.Evidence) == 0 {
			return "I could not find workflow records related to your question."
		}
		return fmt.Sprintf("Here is what the workflow records show. The most relevant entry is %q.", in.Evidence[0].Title)
	default:
		if len(in.Evidence) > 0 {
			return fmt.Sprintf("Here is what I found for your question. The most relevant source is %q.", in.Evidence[0].Title)
		}
		return "I was not sure how to interpret that request, and I could not find related material. Could you rephrase, or mention a case id?"
	}
}

func draftAnswer(in Input) string {
	var b strings.Builder
	b.WriteString("Here is a draft you can adapt:\n\n")
	b.WriteString("Hello,\n\nThank you for flagging this. We are investigating the reported exception")
	if len(in.Evidence) > 0 {
		fmt.Fprintf(&b, " and have identified related context in %q", in.Evidence[0].Title)
	}
	b.WriteString(". We will follow up with findings and a proposed resolution shortly.\n\nBest regards")
	return b.String()
}

// bulletsFor derives 2-3 actionable bullets from the available artifacts,
// falling back to the fixed generic bullets when nothing is available.
func (c *Composer) bulletsFor(in Input) []string {
	bullets := make([]string, 0, maxBullets)

	if in.Recommendation != nil {
		for _, step := range in.Recommendation.Steps {
			if len(bullets) >= maxBullets {
				break
			}
			bullets = append(bullets, fmt.Sprintf("Playbook step %d: %s", step.Order, step.Label))
		}
	}

	for _, sc := range in.SimilarCases {
		if len(bullets) >= maxBullets {
			break
		}
		bullets = append(bullets, fmt.Sprintf("Resolved case %s may apply: %s", sc.CaseID, sc.OutcomeSummary))
	}

	for _, ev := range in.Evidence {
		if len(bullets) >= maxBullets {
			break
		}
		bullets = append(bullets, fmt.Sprintf("See %q (%s) for related context.", ev.Title, ev.SourceType))
	}

	if len(bullets) == 0 {
		return append([]string(nil), fallbackBullets...)
	}
	return bullets
}

// citationsFor is mandatory and non-empty whenever evidence exists.
func citationsFor(items []knowledge.EvidenceItem) []Citation {
	citations := make([]Citation, 0, len(items))
	for _, item := range items {
		snippet := item.Snippet
		if len(snippet) > citationSnippetMaxLen {
			snippet = strings.TrimRight(snippet[:citationSnippetMaxLen], " \t\n") + "..."
		}
		var url *string
		if item.URL != "" {
			u := item.URL
			url = &u
		}
		citations = append(citations, Citation{
			SourceType: string(item.SourceType),
			SourceID:   item.SourceID,
			Title:      item.Title,
			Snippet:    snippet,
			URL:        url,
		})
	}
	return citations
}

func playbookBlockFor(rec *playbook.Recommendation) *PlaybookBlock {
	sourceID := stripPlaybookPrefix(rec.PlaybookID)
	url := "/playbooks/" + sourceID

	next := make([]string, 0, playbookStepPreview)
	for _, step := range rec.Steps {
		if len(next) >= playbookStepPreview {
			break
		}
		next = append(next, step.Label)
	}

	return &PlaybookBlock{
		PlaybookID:    rec.PlaybookID,
		Name:          rec.Name,
		Confidence:    rec.Confidence,
		Steps:         rec.Steps,
		Rationale:     rec.Rationale,
		MatchedFields: rec.MatchedFields,
		NextSteps:     next,
		Citation: Citation{
			SourceType: string(knowledge.SourcePlaybook),
			SourceID:   sourceID,
			Title:      rec.Name,
			Snippet:    rec.Rationale,
			URL:        &url,
		},
	}
}

// stripPlaybookPrefix removes any id scheme prefix so the UI can link the
// bare identifier.
func stripPlaybookPrefix(id string) string {
	for _, prefix := range []string{"playbook:", "pb_", "pb-"} {
		if strings.HasPrefix(id, prefix) {
			return id[len(prefix):]
		}
	}
	return id
}

func fallbackComposed() Composed {
	return Composed{
		Answer:    "I hit an internal problem while assembling this answer, so here is general guidance instead.",
		Bullets:   append([]string(nil), fallbackBullets...),
		Citations: []Citation{},
	}
}
