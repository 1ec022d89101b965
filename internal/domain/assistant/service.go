// Package assistant sequences the pipeline stages for one chat turn:
// session handling, intent classification, retrieval, recommendation,
// composition and safety evaluation.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/compose"
	"exception-server/services/assistant-api/internal/domain/evidence"
	"exception-server/services/assistant-api/internal/domain/intent"
	"exception-server/services/assistant-api/internal/domain/knowledge"
	"exception-server/services/assistant-api/internal/domain/playbook"
	"exception-server/services/assistant-api/internal/domain/safety"
	"exception-server/services/assistant-api/internal/domain/session"
	"exception-server/services/assistant-api/internal/domain/similarcase"
	"exception-server/services/assistant-api/internal/infrastructure/metrics"
	"exception-server/services/assistant-api/internal/infrastructure/observability"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// Service answers operator questions about exceptions.
type Service interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
}

// Config tunes the orchestrator.
type Config struct {
	TopK       int
	SessionTTL time.Duration
}

// PolicyProvider resolves the tenant safety policy, if any.
type PolicyProvider interface {
	PolicyFor(ctx context.Context, tenantID string) *safety.Policy
}

// DefaultService wires the pipeline stages together.
type DefaultService struct {
	sessions    session.Store
	classifier  *intent.Classifier
	retriever   *evidence.Retriever
	similar     *similarcase.Finder
	recommender *playbook.Recommender
	composer    *compose.Composer
	safety      *safety.Evaluator
	policies    PolicyProvider
	cases       similarcase.CaseRepository
	cfg         Config
	log         zerolog.Logger
}

// NewService builds the assistant orchestrator. Collaborators are injected
// explicitly; test doubles satisfy the same interfaces.
func NewService(
	sessions session.Store,
	classifier *intent.Classifier,
	retriever *evidence.Retriever,
	similar *similarcase.Finder,
	recommender *playbook.Recommender,
	composer *compose.Composer,
	safetyEval *safety.Evaluator,
	policies PolicyProvider,
	cases similarcase.CaseRepository,
	cfg Config,
	log zerolog.Logger,
) *DefaultService {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &DefaultService{
		sessions:    sessions,
		classifier:  classifier,
		retriever:   retriever,
		similar:     similar,
		recommender: recommender,
		composer:    composer,
		safety:      safetyEval,
		policies:    policies,
		cases:       cases,
		cfg:         cfg,
		log:         log,
	}
}

var fallbackErrorBullets = []string{
	"Try rephrasing your question with more specific terms.",
	"Mention a case id (for example EX-1234) to anchor the lookup.",
	"Check the exception list directly while the assistant recovers.",
	"Contact support if the problem persists.",
}

const fallbackErrorAnswer = "I ran into a problem while answering that. Nothing was changed on your behalf; please try again."

// Chat executes the full pipeline for one turn. Argument validation errors
// surface immediately; any later failure still yields a well-formed result.
func (s *DefaultService) Chat(ctx context.Context, req ChatRequest) (result *ChatResult, err error) {
	if strings.TrimSpace(req.TenantID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidArgument, "tenant id must not be empty", nil,
			"5e9c6fb8-cc15-b0d5-6b7c-ae5d8f9ab1d7")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidArgument, "user id must not be empty", nil,
			"6fad7ac9-dd26-c1e6-7c8d-bf6e9a0bc2e8")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidArgument, "message must not be empty", nil,
			"70be8bda-ee37-d2f7-8d9e-ca7f0b1cd3f9")
	}

	started := time.Now()
	correlationID := uuid.NewString()

	ctx, span := observability.StartChatSpan(ctx, req.TenantID, req.UserID, req.SessionID)
	defer span.End()

	// Installed before session resolution so a panicking store still yields
	// the fallback payload. The session id stays empty in that case.
	sessionID := ""
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("correlation_id", correlationID).Msg("pipeline panic")
			result = s.fallbackResult(sessionID, started, "pipeline panic")
			err = nil
		}
	}()

	sess := s.resolveSession(ctx, req)
	sessionID = sess.ID

	if _, turnErr := s.sessions.AppendTurn(ctx, sess.ID, req.TenantID, session.RoleUser, req.Message, map[string]any{
		"correlation_id": correlationID,
	}); turnErr != nil {
		s.log.Error().Err(turnErr).Str("session_id", sess.ID).Msg("persist user turn")
		observability.RecordError(span, turnErr)
		return s.fallbackResult(sess.ID, started, turnErr.Error()), nil
	}

	intentResult := s.classify(ctx, req.Message)
	metrics.IntentsTotal.WithLabelValues(string(intentResult.Type)).Inc()

	evidenceItems := s.retrieve(ctx, req, intentResult)

	var similarCases []similarcase.SimilarCase
	switch intentResult.Type {
	case intent.TypeSimilarCases, intent.TypeExplain, intent.TypeRecommendPlaybook:
		similarCases = s.findSimilar(ctx, req, intentResult)
	}

	var recommendation *playbook.Recommendation
	if intentResult.Type == intent.TypeRecommendPlaybook {
		recommendation = s.recommend(ctx, req, intentResult)
	}

	composed := s.composeStage(ctx, compose.Input{
		Intent:         intentResult.Type,
		Query:          req.Message,
		Evidence:       evidenceItems,
		SimilarCases:   similarCases,
		Recommendation: recommendation,
	})

	evaluation := s.evaluate(ctx, req.TenantID, intentResult.Type, composed)
	answer := evaluation.FinalAnswer(composed.Answer)

	if len(evaluation.Violations) > 0 {
		metrics.SafetyViolationsTotal.Add(float64(len(evaluation.Violations)))
	}
	if evaluation.Redacted {
		metrics.RedactionsTotal.Inc()
	}

	elapsed := time.Since(started)
	if _, turnErr := s.sessions.AppendTurn(ctx, sess.ID, req.TenantID, session.RoleAssistant, answer, map[string]any{
		"correlation_id": correlationID,
		"intent":         string(intentResult.Type),
		"confidence":     intentResult.Confidence,
		"citations":      len(composed.Citations),
		"violations":     len(evaluation.Violations),
		"latency_ms":     elapsed.Milliseconds(),
	}); turnErr != nil {
		// The answer is already safe to return; losing one telemetry row is
		// preferable to failing the whole turn.
		s.log.Warn().Err(turnErr).Str("session_id", sess.ID).Msg("persist assistant turn")
	}

	return &ChatResult{
		SessionID:           sess.ID,
		Answer:              answer,
		Bullets:             composed.Bullets,
		Citations:           composed.Citations,
		RecommendedPlaybook: composed.Playbook,
		Intent:              string(intentResult.Type),
		Confidence:          intentResult.Confidence,
		ProcessingTimeMs:    elapsed.Milliseconds(),
		Safety: SafetyBlock{
			Mode:            evaluation.Mode,
			ActionsAllowed:  evaluation.ActionsAllowed,
			Violations:      evaluation.Violations,
			Warnings:        evaluation.Warnings,
			RedactedContent: evaluation.Redacted,
		},
	}, nil
}

// resolveSession honors a supplied session id only when it resolves for the
// tenant and its owner matches the caller; otherwise a new session is
// created transparently.
func (s *DefaultService) resolveSession(ctx context.Context, req ChatRequest) *session.Session {
	if req.SessionID != "" {
		existing, err := s.sessions.Get(ctx, req.SessionID, req.TenantID)
		if err == nil && existing != nil && existing.UserID == req.UserID && !existing.Expired(time.Now().UTC()) {
			return existing
		}
		if err != nil && !platformerrors.IsNotFound(err) {
			s.log.Warn().Err(err).Str("session_id", req.SessionID).Msg("resolve session")
		}
	}

	created, err := s.sessions.Create(ctx, session.CreateParams{
		TenantID: req.TenantID,
		UserID:   req.UserID,
		TTL:      s.cfg.SessionTTL,
	})
	if err != nil {
		// Fall back to an ephemeral session so the turn can still be
		// answered; persistence failures surface via the turn append.
		s.log.Error().Err(err).Str("tenant_id", req.TenantID).Msg("create session")
		now := time.Now().UTC()
		return &session.Session{
			ID:             "sess_" + uuid.NewString(),
			TenantID:       req.TenantID,
			UserID:         req.UserID,
			Active:         true,
			CreatedAt:      now,
			LastActivityAt: now,
		}
	}
	return created
}

func (s *DefaultService) classify(ctx context.Context, message string) intent.Result {
	_, span := observability.StartStageSpan(ctx, "classify")
	defer span.End()
	timer := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("classify").Observe(time.Since(timer).Seconds())
	}()
	return s.classifier.Classify(message)
}

// retrieve is failure-isolated: a broken retriever means empty evidence,
// never a failed turn.
func (s *DefaultService) retrieve(ctx context.Context, req ChatRequest, ir intent.Result) []knowledge.EvidenceItem {
	ctx, span := observability.StartStageSpan(ctx, "retrieve")
	defer span.End()
	timer := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("retrieve").Observe(time.Since(timer).Seconds())
	}()

	result, err := s.retriever.Retrieve(ctx, evidence.Request{
		TenantID: req.TenantID,
		Query:    req.Message,
		Domain:   req.Domain,
		TopK:     s.cfg.TopK,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("tenant_id", req.TenantID).Msg("evidence retrieval failed")
		observability.RecordError(span, err)
		return nil
	}
	for _, diag := range result.Diagnostics {
		if diag.Status == evidence.SourceError {
			s.log.Debug().Str("source_type", string(diag.SourceType)).Str("error", diag.Error).Msg("partial retrieval failure")
		}
	}
	return result.Items
}

func (s *DefaultService) findSimilar(ctx context.Context, req ChatRequest, ir intent.Result) []similarcase.SimilarCase {
	ctx, span := observability.StartStageSpan(ctx, "similar_cases")
	defer span.End()
	timer := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("similar_cases").Observe(time.Since(timer).Seconds())
	}()

	var (
		cases []similarcase.SimilarCase
		err   error
	)
	if ids := mentionedExceptions(ir); len(ids) > 0 {
		cases, err = s.similar.FindByCaseID(ctx, req.TenantID, ids[0], s.cfg.TopK)
	} else {
		cases, err = s.similar.FindByQuery(ctx, req.TenantID, req.Message, s.cfg.TopK)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("tenant_id", req.TenantID).Msg("similar case lookup failed")
		observability.RecordError(span, err)
		return nil
	}
	return cases
}

func (s *DefaultService) recommend(ctx context.Context, req ChatRequest, ir intent.Result) *playbook.Recommendation {
	ctx, span := observability.StartStageSpan(ctx, "recommend")
	defer span.End()
	timer := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("recommend").Observe(time.Since(timer).Seconds())
	}()

	excCtx := s.exceptionContext(ctx, req, ir)
	domain := req.Domain
	if domain == "" {
		domain = "general"
	}

	rec, err := s.recommender.Recommend(ctx, req.TenantID, domain, excCtx)
	if err != nil {
		s.log.Warn().Err(err).Str("tenant_id", req.TenantID).Msg("playbook recommendation failed")
		observability.RecordError(span, err)
		return nil
	}
	return rec
}

// exceptionContext builds the recommender input from a mentioned case when
// one resolves, else from the message itself.
func (s *DefaultService) exceptionContext(ctx context.Context, req ChatRequest, ir intent.Result) playbook.ExceptionContext {
	if ids := mentionedExceptions(ir); len(ids) > 0 && s.cases != nil {
		if record, err := s.cases.Get(ctx, req.TenantID, ids[0]); err == nil && record != nil {
			return playbook.ExceptionContext{
				Type:         record.Type,
				Severity:     record.Severity,
				SourceSystem: record.SourceSystem,
				Description:  req.Message,
			}
		}
	}

	excCtx := playbook.ExceptionContext{Description: req.Message}
	if sevs, ok := ir.Params["severities"].([]string); ok && len(sevs) > 0 {
		excCtx.Severity = sevs[0]
	}
	return excCtx
}

func (s *DefaultService) composeStage(ctx context.Context, in compose.Input) compose.Composed {
	_, span := observability.StartStageSpan(ctx, "compose")
	defer span.End()
	timer := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("compose").Observe(time.Since(timer).Seconds())
	}()
	return s.composer.Compose(in)
}

func (s *DefaultService) evaluate(ctx context.Context, tenantID string, it intent.Type, composed compose.Composed) safety.Evaluation {
	_, span := observability.StartStageSpan(ctx, "safety")
	defer span.End()
	timer := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("safety").Observe(time.Since(timer).Seconds())
	}()

	var policy *safety.Policy
	if s.policies != nil {
		policy = s.policies.PolicyFor(ctx, tenantID)
	}

	return s.safety.Evaluate(safety.Input{
		Intent:      it,
		Answer:      composed.Answer,
		Bullets:     composed.Bullets,
		ClaimedMode: safety.ModeReadOnly,
	}, policy)
}

// fallbackResult is the fixed, well-formed response returned when the
// pipeline could not complete.
func (s *DefaultService) fallbackResult(sessionID string, started time.Time, cause string) *ChatResult {
	metrics.FallbackResponsesTotal.Inc()
	return &ChatResult{
		SessionID:           sessionID,
		Answer:              fallbackErrorAnswer,
		Bullets:             append([]string(nil), fallbackErrorBullets...),
		Citations:           []compose.Citation{},
		RecommendedPlaybook: nil,
		Intent:              string(intent.TypeError),
		Confidence:          0,
		ProcessingTimeMs:    time.Since(started).Milliseconds(),
		Safety: SafetyBlock{
			Mode:            safety.ModeReadOnly,
			ActionsAllowed:  []string{},
			Violations:      []string{cause},
			Warnings:        []string{},
			RedactedContent: false,
		},
	}
}

func mentionedExceptions(ir intent.Result) []string {
	if ids, ok := ir.Params["mentioned_exceptions"].([]string); ok {
		return ids
	}
	return nil
}
