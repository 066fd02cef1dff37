package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"risk-assessor/internal/models"

	"github.com/spf13/cobra"
)

// batchOutput mirrors the HTTP batch response
type batchOutput struct {
	Results []companyOutput `json:"results"`
	Total   int             `json:"total"`
	Failed  int             `json:"failed"`
}

func newBatchCmd(global *globalOptions) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Assess every company in a JSON file",
		Long: `Assess every company in a JSON file holding an array of assessment inputs,
or an object with a "companies" array. Use "-" to read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readInputs(cmd.InOrStdin(), inputPath)
			if err != nil {
				return err
			}
			for i := range inputs {
				applyLLMOverride(&inputs[i], global.llmConfig())
			}

			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}

			results := newAssessmentService(cfg).AssessBatch(cmd.Context(), inputs)

			out := batchOutput{Results: make([]companyOutput, 0, len(results)), Total: len(results)}
			for _, r := range results {
				if r.Error != "" {
					out.Failed++
				}
				out.Results = append(out.Results, companyOutput{CompanyAssessment: r, Summary: r.Summary()})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the JSON input file, or - for stdin")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// readInputs loads assessment inputs from path, or from stdin when path is "-"
func readInputs(stdin io.Reader, path string) ([]models.AssessmentInput, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input %s: %w", path, err)
	}

	inputs, err := decodeInputs(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input %s: %w", path, err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("input %s contains no companies", path)
	}
	return inputs, nil
}

func decodeInputs(data []byte) ([]models.AssessmentInput, error) {
	var inputs []models.AssessmentInput
	if err := json.Unmarshal(data, &inputs); err == nil {
		return inputs, nil
	}

	var wrapped struct {
		Companies []models.AssessmentInput `json:"companies"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Companies, nil
}
