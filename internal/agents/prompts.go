package agents

import (
	"fmt"

	"risk-assessor/internal/models"
	"risk-assessor/internal/utils"
)

// PromptInput carries the evidence rendered into a prompt
type PromptInput struct {
	CompanyName       string
	CurrentRating     string
	QuestionnaireText string
	Comments          string
	WebText           string
}

const noneProvided = "None provided"

// BuildPrompt renders the fixed template for one evidence source. Unknown kinds
// render the internet template.
func BuildPrompt(kind models.AssessmentType, in PromptInput) string {
	switch kind {
	case models.AssessmentQuestionnaire:
		return buildQuestionnairePrompt(in)
	case models.AssessmentComments:
		return buildCommentsPrompt(in)
	default:
		return buildInternetPrompt(in)
	}
}

func buildQuestionnairePrompt(in PromptInput) string {
	return fmt.Sprintf(`You are an operational risk expert. Analyze the company's questionnaire responses and determine if the current risk rating is correct.

Company: %[1]s
Current Risk Rating: %[2]s

QUESTIONNAIRE RESPONSES:
%[3]s

Analyze the responses and determine:
1. Is the current risk rating (%[2]s) correct based on the questionnaire responses?
2. What should be the recommended risk rating? (High/Medium/Low)
3. Provide a clear explanation with bullet points.

Respond in JSON format:
{
    "is_correct": true/false,
    "recommended_rating": "High/Medium/Low",
    "explanation": "Detailed explanation with bullet points"
}`, in.CompanyName, in.CurrentRating, in.QuestionnaireText)
}

func buildCommentsPrompt(in PromptInput) string {
	return fmt.Sprintf(`You are an operational risk expert. Analyze the comments about the company and determine if the current risk rating is correct.

Company: %[1]s
Current Risk Rating: %[2]s

COMMENTS:
%[3]s

Analyze the comments and determine:
1. Is the current risk rating (%[2]s) correct based on the comments?
2. What should be the recommended risk rating? (High/Medium/Low)
3. Provide a clear explanation with bullet points.

Respond in JSON format:
{
    "is_correct": true/false,
    "recommended_rating": "High/Medium/Low",
    "explanation": "Detailed explanation with bullet points"
}`, in.CompanyName, in.CurrentRating, in.Comments)
}

func buildInternetPrompt(in PromptInput) string {
	comments := in.Comments
	if comments == "" {
		comments = noneProvided
	}

	return fmt.Sprintf(`You are an operational risk expert. Analyze the scraped website content to validate the current risk rating.

Company: %[1]s
Current Risk Rating: %[2]s

INTERNAL CONTEXT:
- Comments: %[3]s

SCRAPED WEBSITE CONTENT (from company website and public sources):
%[4]s

TASK:
1. Extract operational risk information from the scraped content (risk management, compliance, security, governance, incidents, vulnerabilities)
2. Determine if current rating (%[2]s) is correct based on the website content
3. Recommend the correct rating: High, Medium, or Low
4. Explain your reasoning with specific references to the scraped content

IMPORTANT: 
- You MUST provide a specific rating (High/Medium/Low), NOT "Unknown"
- Quote specific text from the scraped content to support your assessment
- If website content is insufficient, state that clearly but still provide a rating based on available information

Respond ONLY with valid JSON (no markdown, no code blocks):
{
    "is_correct": true or false,
    "recommended_rating": "High" or "Medium" or "Low",
    "explanation": "Detailed explanation with: 1) Internal Data Analysis, 2) External Web Data Analysis (with quotes from scraped content), 3) Comprehensive Assessment explaining why rating is correct/incorrect",
    "external_signals": "Key risk signals found with specific quotes from the website",
    "risk_factors_found": "List of specific risk factors identified from the scraped content"
}`, in.CompanyName, in.CurrentRating, comments, utils.TruncateRunes(in.WebText, models.MaxPromptWebTextChars))
}
