package models

import (
	"sort"
	"strings"
)

// SourceTool identifies the search backend that produced a result
type SourceTool string

const (
	ToolDDG             SourceTool = "DDG"
	ToolGoogle          SourceTool = "Google"
	ToolSearXNG         SourceTool = "SearXNG"
	ToolHeadlessBrowser SourceTool = "HeadlessBrowser"
)

// SearchResult is one normalized candidate returned by a search provider
type SearchResult struct {
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Snippet    string     `json:"snippet"`
	SourceTool SourceTool `json:"tool"`
}

// URLDetailType classifies a scraped page in the evidence provenance
type URLDetailType string

const (
	URLDetailPrimary    URLDetailType = "primary"
	URLDetailRiskPage   URLDetailType = "risk_page"
	URLDetailAdditional URLDetailType = "additional"
)

// URLDetail records one scraped page kept as provenance for internet evidence
type URLDetail struct {
	URL            string        `json:"url"`
	Type           URLDetailType `json:"type"`
	Title          string        `json:"title"`
	Tool           string        `json:"tool"`
	ContentSnippet string        `json:"content"`
}

// EvidenceBundle is the size-capped scraped text plus provenance for one company
type EvidenceBundle struct {
	WebText    string      `json:"web_text"`
	URLDetails []URLDetail `json:"url_details"`
}

// HasText reports whether the bundle carries usable web text
func (b EvidenceBundle) HasText() bool {
	return len(strings.TrimSpace(b.WebText)) >= MinEvidenceChars
}

// Rating is one of the recommended operational-risk levels
type Rating string

const (
	RatingHigh   Rating = "High"
	RatingMedium Rating = "Medium"
	RatingLow    Rating = "Low"
)

// ParseRating canonicalizes a rating string case-insensitively
func ParseRating(s string) (Rating, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return RatingHigh, true
	case "medium":
		return RatingMedium, true
	case "low":
		return RatingLow, true
	}
	return "", false
}

// AssessmentType names an evidence source
type AssessmentType string

const (
	AssessmentQuestionnaire AssessmentType = "questionnaire"
	AssessmentComments      AssessmentType = "comments"
	AssessmentInternet      AssessmentType = "internet"
)

// AllAssessmentTypes lists the evidence sources in display order
var AllAssessmentTypes = []AssessmentType{AssessmentQuestionnaire, AssessmentComments, AssessmentInternet}

// Valid reports whether t is a known evidence source
func (t AssessmentType) Valid() bool {
	switch t {
	case AssessmentQuestionnaire, AssessmentComments, AssessmentInternet:
		return true
	}
	return false
}

// SearchMethod selects which search providers gather internet evidence
type SearchMethod string

const (
	SearchCombined   SearchMethod = "combined"
	SearchAll        SearchMethod = "all"
	SearchDDG        SearchMethod = "ddgs"
	SearchGoogle     SearchMethod = "google"
	SearchSearXNG    SearchMethod = "searxng"
	SearchPlaywright SearchMethod = "playwright"
)

// AssessmentResult is one (company, evidence source) recommendation
type AssessmentResult struct {
	IsCorrect         bool        `json:"is_correct"`
	RecommendedRating string      `json:"recommended_rating"`
	Explanation       string      `json:"explanation"`
	ExternalSignals   string      `json:"external_signals,omitempty"`
	RiskFactorsFound  string      `json:"risk_factors_found,omitempty"`
	Links             []string    `json:"links"`
	URLDetails        []URLDetail `json:"url_details,omitempty"`
}

// CompanyAssessment aggregates every requested assessment for one company
type CompanyAssessment struct {
	RequestID     string                              `json:"request_id,omitempty"`
	CompanyName   string                              `json:"company_name"`
	CurrentRating string                              `json:"current_rating"`
	Assessments   map[AssessmentType]AssessmentResult `json:"assessments"`
	Error         string                              `json:"error,omitempty"`
}

// SummaryRow is a per-source rating comparison for display
type SummaryRow struct {
	Source           AssessmentType `json:"source"`
	RatingFromSource string         `json:"rating_from_source"`
	RatingFromFile   string         `json:"rating_from_file"`
	IsCorrect        bool           `json:"is_correct"`
}

// Summary returns one row per completed assessment in display order
func (c CompanyAssessment) Summary() []SummaryRow {
	rows := make([]SummaryRow, 0, len(c.Assessments))
	for _, t := range AllAssessmentTypes {
		result, ok := c.Assessments[t]
		if !ok {
			continue
		}
		rows = append(rows, SummaryRow{
			Source:           t,
			RatingFromSource: result.RecommendedRating,
			RatingFromFile:   c.CurrentRating,
			IsCorrect:        result.IsCorrect,
		})
	}
	return rows
}

// LLMConfig points the completion client at a model server
type LLMConfig struct {
	APIBase string `json:"api_base"`
	Model   string `json:"model"`
}

// AssessmentInput is everything needed to assess one company
type AssessmentInput struct {
	RequestID         string            `json:"request_id,omitempty"`
	CompanyName       string            `json:"company_name"`
	QuestionnaireData map[string]string `json:"questionnaire_data,omitempty"`
	Comments          string            `json:"comments,omitempty"`
	CurrentRating     string            `json:"current_rating"`
	AssessmentTypes   []AssessmentType  `json:"assessment_types"`
	SearchMethod      SearchMethod      `json:"search_method,omitempty"`
	SearXNGURL        string            `json:"searxng_url,omitempty"`
	LLM               LLMConfig         `json:"llm_config"`
}

// Wants reports whether the input requests the given assessment type
func (in AssessmentInput) Wants(t AssessmentType) bool {
	for _, requested := range in.AssessmentTypes {
		if requested == t {
			return true
		}
	}
	return false
}

// QuestionnaireText renders non-empty answers as "question: answer" lines in key order
func (in AssessmentInput) QuestionnaireText() string {
	keys := make([]string, 0, len(in.QuestionnaireData))
	for k, v := range in.QuestionnaireData {
		if strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+in.QuestionnaireData[k])
	}
	return strings.Join(lines, "\n")
}
