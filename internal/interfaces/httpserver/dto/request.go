// Package dto defines the request and response payloads of the assistant API.
package dto

// ChatRequest is the payload of POST /v1/assistant/chat.
type ChatRequest struct {
	TenantID  string `json:"tenant_id" binding:"required"`
	UserID    string `json:"user_id" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message" binding:"required"`
	Domain    string `json:"domain,omitempty"`
}

// CreateSessionRequest is the payload of POST /v1/sessions.
type CreateSessionRequest struct {
	TenantID string            `json:"tenant_id" binding:"required"`
	UserID   string            `json:"user_id" binding:"required"`
	Title    *string           `json:"title,omitempty"`
	Context  map[string]string `json:"context,omitempty"`
}

// UpsertDocumentRequest is the payload of PUT /v1/knowledge/documents.
type UpsertDocumentRequest struct {
	TenantID      string            `json:"tenant_id" binding:"required"`
	SourceType    string            `json:"source_type" binding:"required"`
	SourceID      string            `json:"source_id" binding:"required"`
	SourceVersion string            `json:"source_version,omitempty"`
	Domain        string            `json:"domain,omitempty"`
	Title         string            `json:"title" binding:"required"`
	Content       string            `json:"content" binding:"required"`
	URL           string            `json:"url,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}
