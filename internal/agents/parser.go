package agents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"risk-assessor/internal/models"
	"risk-assessor/internal/utils"
)

const (
	parseFailurePrefix      = "LLM response parsing issue. Raw response: "
	parseFailureSignals     = "Unable to parse assessment"
	parseFailureRiskFactors = "Assessment parsing failed"
	noTitle                 = "No title"
)

// rawAssessment holds the decoded fields before normalization. Fields stay raw
// because models disagree on whether lists or strings come back.
type rawAssessment struct {
	IsCorrect         json.RawMessage `json:"is_correct"`
	RecommendedRating json.RawMessage `json:"recommended_rating"`
	Explanation       json.RawMessage `json:"explanation"`
	ExternalSignals   json.RawMessage `json:"external_signals"`
	RiskFactorsFound  json.RawMessage `json:"risk_factors_found"`
}

// ParseAssessment turns model output into a result. It never fails: text that holds
// no decodable object yields a fallback carrying a truncated copy of raw. Links and
// URL details are left for the caller.
func ParseAssessment(raw, currentRating string, kind models.AssessmentType) models.AssessmentResult {
	cleaned := stripCodeFences(raw)

	decoded, ok := decodeBraceSpan(cleaned)
	if !ok {
		decoded, ok = decodeFirstObject(cleaned)
	}
	if !ok {
		decoded, ok = decodeWhole(cleaned)
	}
	if !ok {
		return fallbackResult(raw, currentRating, kind)
	}

	return normalize(decoded, currentRating)
}

// stripCodeFences removes a leading ```json or ``` marker and a trailing ``` marker
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeBraceSpan decodes the greedy span from the first '{' to the last '}'
func decodeBraceSpan(s string) (rawAssessment, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return rawAssessment{}, false
	}
	return decodeObject([]byte(s[start : end+1]))
}

// decodeFirstObject tries each '{' in turn and decodes the first complete JSON object
// found there, which recovers objects surrounded by prose that itself contains braces
func decodeFirstObject(s string) (rawAssessment, bool) {
	for offset := 0; offset < len(s); {
		i := strings.IndexByte(s[offset:], '{')
		if i < 0 {
			break
		}
		start := offset + i
		var obj json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&obj); err == nil {
			if decoded, ok := decodeObject(obj); ok {
				return decoded, true
			}
		}
		offset = start + 1
	}
	return rawAssessment{}, false
}

func decodeWhole(s string) (rawAssessment, bool) {
	return decodeObject([]byte(s))
}

func decodeObject(data []byte) (rawAssessment, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return rawAssessment{}, false
	}
	var out rawAssessment
	if err := json.Unmarshal(data, &out); err != nil {
		return rawAssessment{}, false
	}
	return out, true
}

func normalize(decoded rawAssessment, currentRating string) models.AssessmentResult {
	return models.AssessmentResult{
		IsCorrect:         flexibleBool(decoded.IsCorrect),
		RecommendedRating: normalizeRating(flexibleString(decoded.RecommendedRating), currentRating),
		Explanation:       flexibleString(decoded.Explanation),
		ExternalSignals:   flexibleString(decoded.ExternalSignals),
		RiskFactorsFound:  flexibleString(decoded.RiskFactorsFound),
		Links:             []string{},
	}
}

// normalizeRating canonicalizes High/Medium/Low and replaces anything else,
// including an absent value or "Unknown", with the current rating
func normalizeRating(value, currentRating string) string {
	if rating, ok := models.ParseRating(value); ok {
		return string(rating)
	}
	return currentRating
}

func fallbackResult(raw, currentRating string, kind models.AssessmentType) models.AssessmentResult {
	result := models.AssessmentResult{
		IsCorrect:         false,
		RecommendedRating: currentRating,
		Explanation:       parseFailurePrefix + utils.TruncateRunes(raw, models.MaxRawResponseChars),
		Links:             []string{},
	}
	if kind == models.AssessmentInternet {
		result.ExternalSignals = parseFailureSignals
		result.RiskFactorsFound = parseFailureRiskFactors
	}
	return result
}

// flexibleBool accepts JSON booleans and the strings "true"/"yes"; anything else is false
func flexibleBool(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.ToLower(strings.TrimSpace(s))
		if parsed, err := strconv.ParseBool(s); err == nil {
			return parsed
		}
		return s == "yes"
	}
	return false
}

// flexibleString renders strings as-is, lists as one item per line and any other
// JSON value in its compact encoding
func flexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		lines := make([]string, 0, len(items))
		for _, item := range items {
			if line := flexibleString(item); line != "" {
				lines = append(lines, "- "+line)
			}
		}
		return strings.Join(lines, "\n")
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err == nil {
		return compact.String()
	}
	return string(raw)
}

// FormatLinks renders up to five URL details as "{url} ({title})"
func FormatLinks(details []models.URLDetail) []string {
	links := make([]string, 0, models.MaxLinks)
	for _, d := range capDetails(details) {
		title := d.Title
		if title == "" {
			title = noTitle
		}
		links = append(links, fmt.Sprintf("%s (%s)", d.URL, title))
	}
	return links
}

func capDetails(details []models.URLDetail) []models.URLDetail {
	if len(details) > models.MaxLinks {
		return details[:models.MaxLinks]
	}
	return details
}
