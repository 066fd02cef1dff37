package main

import (
	"fmt"
	"strings"

	"risk-assessor/internal/models"

	"github.com/spf13/cobra"
)

type companyOptions struct {
	name          string
	rating        string
	types         []string
	comments      string
	questionnaire []string
	searchMethod  string
	searxngURL    string
}

// companyOutput adds the display summary to one company's result
type companyOutput struct {
	models.CompanyAssessment
	Summary []models.SummaryRow `json:"summary"`
}

func newCompanyCmd(global *globalOptions) *cobra.Command {
	opts := &companyOptions{}

	cmd := &cobra.Command{
		Use:   "company",
		Short: "Assess a single company",
		Example: `  assess company --name "Acme Corp" --rating Medium --types comments,internet \
    --comments "Late filings in 2023" --questionnaire "Has SOC2=yes"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := opts.input()
			if err != nil {
				return err
			}
			applyLLMOverride(&in, global.llmConfig())

			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}

			result := newAssessmentService(cfg).Assess(cmd.Context(), in)
			if err := writeJSON(cmd.OutOrStdout(), companyOutput{CompanyAssessment: result, Summary: result.Summary()}); err != nil {
				return err
			}
			if result.Error != "" {
				return fmt.Errorf("assessment of %q failed: %s", in.CompanyName, result.Error)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.name, "name", "n", "", "Company name (required)")
	flags.StringVarP(&opts.rating, "rating", "r", "", "Current operational-risk rating")
	flags.StringSliceVarP(&opts.types, "types", "t", []string{"questionnaire", "comments", "internet"}, "Assessment types to run")
	flags.StringVar(&opts.comments, "comments", "", "Reviewer comments")
	flags.StringArrayVarP(&opts.questionnaire, "questionnaire", "q", nil, "Questionnaire answer as question=answer (repeatable)")
	flags.StringVar(&opts.searchMethod, "search-method", string(models.SearchCombined), "Search method: combined, all, ddgs, google, searxng or playwright")
	flags.StringVar(&opts.searxngURL, "searxng-url", "", "SearXNG instance for this run")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// input builds the assessment input from the flags
func (o *companyOptions) input() (models.AssessmentInput, error) {
	if strings.TrimSpace(o.name) == "" {
		return models.AssessmentInput{}, fmt.Errorf("--name must not be blank")
	}

	types, err := parseTypes(o.types)
	if err != nil {
		return models.AssessmentInput{}, err
	}

	answers, err := parseQuestionnaire(o.questionnaire)
	if err != nil {
		return models.AssessmentInput{}, err
	}

	return models.AssessmentInput{
		CompanyName:       o.name,
		CurrentRating:     o.rating,
		AssessmentTypes:   types,
		Comments:          o.comments,
		QuestionnaireData: answers,
		SearchMethod:      models.SearchMethod(strings.ToLower(o.searchMethod)),
		SearXNGURL:        o.searxngURL,
	}, nil
}

func parseTypes(raw []string) ([]models.AssessmentType, error) {
	types := make([]models.AssessmentType, 0, len(raw))
	for _, r := range raw {
		kind := models.AssessmentType(strings.ToLower(strings.TrimSpace(r)))
		if kind == "" {
			continue
		}
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown assessment type %q", r)
		}
		types = append(types, kind)
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("at least one assessment type is required")
	}
	return types, nil
}

// parseQuestionnaire splits question=answer pairs on the first '='
func parseQuestionnaire(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	answers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		question, answer, ok := strings.Cut(pair, "=")
		question = strings.TrimSpace(question)
		if !ok || question == "" {
			return nil, fmt.Errorf("questionnaire entry %q must be question=answer", pair)
		}
		answers[question] = strings.TrimSpace(answer)
	}
	return answers, nil
}
