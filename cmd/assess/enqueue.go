package main

import (
	"fmt"

	"risk-assessor/internal/logger"
	"risk-assessor/internal/queue"
	"risk-assessor/internal/utils"

	"github.com/spf13/cobra"
)

// enqueueOutput lists the request ids the worker will publish results under
type enqueueOutput struct {
	Topic      string   `json:"topic"`
	RequestIDs []string `json:"request_ids"`
}

func newEnqueueCmd(global *globalOptions) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue companies from a JSON file for the worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readInputs(cmd.InOrStdin(), inputPath)
			if err != nil {
				return err
			}

			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}

			kafkaService := queue.NewService(queue.Config{
				Brokers:      cfg.KafkaBrokers(),
				RequestTopic: cfg.KafkaTopicRequests,
				ResultTopic:  cfg.KafkaTopicResults,
				GroupID:      cfg.KafkaGroupID,
			})
			defer func() {
				if err := kafkaService.Close(); err != nil {
					logger.Log.WithError(err).Warn("Failed to close Kafka service")
				}
			}()

			out := enqueueOutput{Topic: cfg.KafkaTopicRequests, RequestIDs: make([]string, 0, len(inputs))}
			for i := range inputs {
				applyLLMOverride(&inputs[i], global.llmConfig())
				inputs[i].RequestID = utils.EnsureRequestID(inputs[i].RequestID)
				if err := kafkaService.PublishRequest(cmd.Context(), inputs[i]); err != nil {
					return fmt.Errorf("failed to enqueue %q: %w", inputs[i].CompanyName, err)
				}
				out.RequestIDs = append(out.RequestIDs, inputs[i].RequestID)
			}

			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the JSON input file, or - for stdin")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
