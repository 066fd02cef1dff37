package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProbeCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check whether the LLM server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}

			status := newAssessmentService(cfg).LLMStatus(cmd.Context(), global.apiBase)
			if err := writeJSON(cmd.OutOrStdout(), status); err != nil {
				return err
			}
			if !status.Available {
				return fmt.Errorf("LLM server at %s is not available", status.APIBase)
			}
			return nil
		},
	}
}
