package assistant

import (
	"exception-server/services/assistant-api/internal/domain/compose"
)

// ChatRequest is one operator question directed at the assistant.
type ChatRequest struct {
	TenantID  string
	UserID    string
	SessionID string
	Message   string
	Domain    string
}

// SafetyBlock is the safety envelope attached to every chat result.
type SafetyBlock struct {
	Mode            string   `json:"mode"`
	ActionsAllowed  []string `json:"actions_allowed"`
	Violations      []string `json:"violations"`
	Warnings        []string `json:"warnings"`
	RedactedContent bool     `json:"redacted_content"`
}

// ChatResult is the stable response contract of the assistant pipeline.
// It is always fully formed, even when a pipeline stage failed.
type ChatResult struct {
	SessionID           string                 `json:"session_id"`
	Answer              string                 `json:"answer"`
	Bullets             []string               `json:"bullets"`
	Citations           []compose.Citation     `json:"citations"`
	RecommendedPlaybook *compose.PlaybookBlock `json:"recommended_playbook"`
	Intent              string                 `json:"intent"`
	Confidence          float64                `json:"confidence"`
	ProcessingTimeMs    int64                  `json:"processing_time_ms"`
	Safety              SafetyBlock            `json:"safety"`
}
