package agents

import (
	"context"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"
)

const (
	insufficientExplanation = "Unable to scrape sufficient website content for assessment. Please check if the company website is accessible."
	insufficientSignals     = "No web data available"
	insufficientRiskFactors = "None - website content not available"
)

// InternetAgent judges the rating against scraped public web content
type InternetAgent struct {
	*BaseAgent
}

// NewInternetAgent creates a new internet agent
func NewInternetAgent(client clients.CompletionClientInterface, maxTokens int) *InternetAgent {
	return &InternetAgent{
		BaseAgent: NewBaseAgent(models.AssessmentInternet, client, maxTokens),
	}
}

// Assess prompts the model with the evidence bundle. Without enough web text the
// model is not called and a fixed placeholder keeps the current rating.
func (i *InternetAgent) Assess(ctx context.Context, req Request) models.AssessmentResult {
	if !req.Evidence.HasText() {
		i.logger.WithFields(map[string]interface{}{
			"agent":          i.Name(),
			"correlation_id": logger.CorrelationID(ctx),
			"company":        req.CompanyName,
			"url_details":    len(req.Evidence.URLDetails),
		}).Warn("Insufficient web evidence, skipping completion")
		return InsufficientEvidenceResult(req.CurrentRating, req.Evidence.URLDetails)
	}

	result := i.assessWithPrompt(ctx, req)
	result.Links = FormatLinks(req.Evidence.URLDetails)
	result.URLDetails = capDetails(req.Evidence.URLDetails)
	return result
}

// InsufficientEvidenceResult is the "no signal" outcome for the internet source
func InsufficientEvidenceResult(currentRating string, details []models.URLDetail) models.AssessmentResult {
	return models.AssessmentResult{
		IsCorrect:         false,
		RecommendedRating: currentRating,
		Explanation:       insufficientExplanation,
		ExternalSignals:   insufficientSignals,
		RiskFactorsFound:  insufficientRiskFactors,
		Links:             FormatLinks(details),
		URLDetails:        capDetails(details),
	}
}
