package agents

import (
	"context"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/models"
)

// QuestionnaireAgent judges the rating against the company's questionnaire answers
type QuestionnaireAgent struct {
	*BaseAgent
}

// NewQuestionnaireAgent creates a new questionnaire agent
func NewQuestionnaireAgent(client clients.CompletionClientInterface, maxTokens int) *QuestionnaireAgent {
	return &QuestionnaireAgent{
		BaseAgent: NewBaseAgent(models.AssessmentQuestionnaire, client, maxTokens),
	}
}

// Assess prompts the model with the rendered answers
func (q *QuestionnaireAgent) Assess(ctx context.Context, req Request) models.AssessmentResult {
	return q.assessWithPrompt(ctx, req)
}
