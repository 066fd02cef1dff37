package agents

import (
	"context"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/models"
)

// CommentsAgent judges the rating against free-text reviewer comments
type CommentsAgent struct {
	*BaseAgent
}

// NewCommentsAgent creates a new comments agent
func NewCommentsAgent(client clients.CompletionClientInterface, maxTokens int) *CommentsAgent {
	return &CommentsAgent{
		BaseAgent: NewBaseAgent(models.AssessmentComments, client, maxTokens),
	}
}

// Assess prompts the model with the comments, which may be empty
func (c *CommentsAgent) Assess(ctx context.Context, req Request) models.AssessmentResult {
	return c.assessWithPrompt(ctx, req)
}
