package agents

import (
	"context"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/models"
)

// Agent assesses a company's current rating against one evidence source
type Agent interface {
	// Assess never fails: every degraded path yields a placeholder result
	Assess(ctx context.Context, req Request) models.AssessmentResult

	// Kind names the evidence source this agent reads
	Kind() models.AssessmentType
}

// Request is the evidence an agent needs for one company
type Request struct {
	CompanyName       string
	CurrentRating     string
	QuestionnaireText string
	Comments          string
	Evidence          models.EvidenceBundle
	LLM               models.LLMConfig
}

// promptInput maps a request onto the prompt template fields
func (r Request) promptInput() PromptInput {
	return PromptInput{
		CompanyName:       r.CompanyName,
		CurrentRating:     r.CurrentRating,
		QuestionnaireText: r.QuestionnaireText,
		Comments:          r.Comments,
		WebText:           r.Evidence.WebText,
	}
}

// NewAgent builds the agent for one evidence source
func NewAgent(kind models.AssessmentType, client clients.CompletionClientInterface, maxTokens int) (Agent, error) {
	switch kind {
	case models.AssessmentQuestionnaire:
		return NewQuestionnaireAgent(client, maxTokens), nil
	case models.AssessmentComments:
		return NewCommentsAgent(client, maxTokens), nil
	case models.AssessmentInternet:
		return NewInternetAgent(client, maxTokens), nil
	}
	return nil, NewAgentError(string(kind), "unknown assessment type", nil)
}
