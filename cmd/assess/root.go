package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"risk-assessor/internal/clients"
	"risk-assessor/internal/config"
	"risk-assessor/internal/evidence"
	"risk-assessor/internal/logger"
	"risk-assessor/internal/models"
	"risk-assessor/internal/services"

	"github.com/spf13/cobra"
)

// globalOptions are the flags shared by every subcommand
type globalOptions struct {
	apiBase  string
	model    string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess the operational risk rating of companies",
		Long: `assess compares a company's current operational-risk rating with what its
questionnaire answers, reviewer comments and public web presence suggest.

Results are printed to stdout as JSON. Logs go to stderr.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Log.SetOutput(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiBase, "api-base", "", "LLM API base URL (defaults to LLM_API_BASE)")
	rootCmd.PersistentFlags().StringVar(&opts.model, "model", "", "LLM model name (defaults to LLM_MODEL)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN or ERROR (defaults to LOG_LEVEL)")

	rootCmd.AddCommand(newCompanyCmd(opts))
	rootCmd.AddCommand(newBatchCmd(opts))
	rootCmd.AddCommand(newProbeCmd(opts))
	rootCmd.AddCommand(newEnqueueCmd(opts))

	return rootCmd
}

// loadConfig reads the environment and applies the global flag overrides
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = strings.ToUpper(o.logLevel)
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// llmConfig is the per-request override built from the global flags
func (o *globalOptions) llmConfig() models.LLMConfig {
	return models.LLMConfig{APIBase: o.apiBase, Model: o.model}
}

func newAssessmentService(cfg *config.Config) *services.AssessmentService {
	return services.NewAssessmentService(cfg, evidence.NewCollectorFromConfig(cfg), clients.NewCompletionClient(cfg))
}

// applyLLMOverride fills the input's LLM settings from the flags where the input left them blank
func applyLLMOverride(in *models.AssessmentInput, llm models.LLMConfig) {
	if in.LLM.APIBase == "" {
		in.LLM.APIBase = llm.APIBase
	}
	if in.LLM.Model == "" {
		in.LLM.Model = llm.Model
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
