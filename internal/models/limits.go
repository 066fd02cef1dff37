package models

// Size limits for scraped evidence and model output. These were tuned for
// prompt fit against the target model and are kept as-is.
const (
	MaxWebTextChars           = 12000
	MaxMainSectionChars       = 4000
	MaxRiskPageSectionChars   = 4000
	MaxAdditionalSectionChars = 3000
	MaxPromptWebTextChars     = 10000
	MaxContentSnippetChars    = 500
	MaxRawResponseChars       = 500

	// MinEvidenceChars is the trimmed length below which a bundle counts as "no signal"
	MinEvidenceChars = 50
	// MinSectionChars is the length a risk page or additional source must exceed
	MinSectionChars = 100

	MaxRiskPages         = 3
	MaxRiskSubpages      = 5
	MaxAdditionalSources = 5
	// AdditionalCandidateEnd bounds the candidate slice [1:AdditionalCandidateEnd]
	AdditionalCandidateEnd = 10
	MaxLinks               = 5

	DefaultCurrentRating = "Unknown"
)
