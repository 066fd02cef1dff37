package agents

import (
	"context"
	"time"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"

	"github.com/sirupsen/logrus"
)

// llmErrorPrefix tags completion failures so the parser reports them verbatim
const llmErrorPrefix = "Error calling vLLM: "

// BaseAgent provides common functionality for all assessment agents
type BaseAgent struct {
	kind      models.AssessmentType
	client    clients.CompletionClientInterface
	maxTokens int
	logger    *logrus.Logger
}

// NewBaseAgent creates a new base agent
func NewBaseAgent(kind models.AssessmentType, client clients.CompletionClientInterface, maxTokens int) *BaseAgent {
	return &BaseAgent{
		kind:      kind,
		client:    client,
		maxTokens: maxTokens,
		logger:    logger.Log,
	}
}

// Name returns the agent's name
func (b *BaseAgent) Name() string {
	return string(b.kind)
}

// Kind returns the evidence source the agent reads
func (b *BaseAgent) Kind() models.AssessmentType {
	return b.kind
}

// LogStart logs the beginning of agent processing
func (b *BaseAgent) LogStart(ctx context.Context, company string, promptLength int) {
	b.logger.WithFields(map[string]interface{}{
		"agent":          b.Name(),
		"correlation_id": logger.CorrelationID(ctx),
		"company":        company,
		"prompt_length":  promptLength,
	}).Info("Agent processing started")
}

// LogSuccess logs completion of agent processing
func (b *BaseAgent) LogSuccess(ctx context.Context, result models.AssessmentResult, duration time.Duration) {
	fields := map[string]interface{}{
		"agent":              b.Name(),
		"correlation_id":     logger.CorrelationID(ctx),
		"recommended_rating": result.RecommendedRating,
		"is_correct":         result.IsCorrect,
		"duration_ms":        duration.Milliseconds(),
	}
	if len(result.Links) > 0 {
		fields["links_count"] = len(result.Links)
	}

	b.logger.WithFields(fields).Info("Agent processing completed")
}

// LogError logs agent processing errors
func (b *BaseAgent) LogError(ctx context.Context, err error, duration time.Duration) {
	logger.LogErrorWithStackAndCorrelation(err, logger.CorrelationID(ctx), map[string]interface{}{
		"agent":       b.Name(),
		"duration_ms": duration.Milliseconds(),
		"operation":   "agent_processing",
	})
}

// LogAPICall logs details about the completion request
func (b *BaseAgent) LogAPICall(ctx context.Context, llm models.LLMConfig, promptLength int) {
	b.logger.WithFields(map[string]interface{}{
		"agent":          b.Name(),
		"correlation_id": logger.CorrelationID(ctx),
		"model":          llm.Model,
		"api_base":       llm.APIBase,
		"prompt_length":  promptLength,
		"max_tokens":     b.maxTokens,
	}).Debug("Making completion call")
}

// LogAPIResponse logs details about the completion response
func (b *BaseAgent) LogAPIResponse(ctx context.Context, responseLength int, duration time.Duration) {
	b.logger.WithFields(map[string]interface{}{
		"agent":           b.Name(),
		"correlation_id":  logger.CorrelationID(ctx),
		"response_length": responseLength,
		"duration_ms":     duration.Milliseconds(),
	}).Debug("Completion response received")
}

// complete calls the model. A failure is folded into error-tagged text and
// reported through failed so callers never decode it as model output.
func (b *BaseAgent) complete(ctx context.Context, prompt string, llm models.LLMConfig) (text string, failed bool) {
	start := time.Now()
	b.LogAPICall(ctx, llm, len(prompt))

	text, err := b.client.Complete(ctx, prompt, llm.Model, llm.APIBase, b.maxTokens)
	if err != nil {
		b.LogError(ctx, NewAgentError(b.Name(), "completion failed", err), time.Since(start))
		return llmErrorPrefix + err.Error(), true
	}

	b.LogAPIResponse(ctx, len(text), time.Since(start))
	return text, false
}

// assessWithPrompt runs the shared prompt, complete and parse flow
func (b *BaseAgent) assessWithPrompt(ctx context.Context, req Request) models.AssessmentResult {
	start := time.Now()
	prompt := BuildPrompt(b.kind, req.promptInput())
	b.LogStart(ctx, req.CompanyName, len(prompt))

	var result models.AssessmentResult
	if raw, failed := b.complete(ctx, prompt, req.LLM); failed {
		result = fallbackResult(raw, req.CurrentRating, b.kind)
	} else {
		result = ParseAssessment(raw, req.CurrentRating, b.kind)
	}

	b.LogSuccess(ctx, result, time.Since(start))
	return result
}
