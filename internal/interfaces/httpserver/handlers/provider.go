package handlers

import (
	"time"

	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/assistant"
	"exception-server/services/assistant-api/internal/domain/session"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Assistant *AssistantHandler
	Session   *SessionHandler
	Knowledge *KnowledgeHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	assistantService assistant.Service,
	sessionStore session.Store,
	documentStore DocumentStore,
	documentIndexer DocumentIndexer,
	sessionTTL time.Duration,
	turnsLimit int,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Assistant: NewAssistantHandler(assistantService, log),
		Session:   NewSessionHandler(sessionStore, sessionTTL, turnsLimit, log),
		Knowledge: NewKnowledgeHandler(documentStore, documentIndexer, log),
	}
}
