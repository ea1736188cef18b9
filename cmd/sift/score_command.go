package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sift/internal/jobspec"
	"sift/internal/report"
	"sift/internal/scoring"
	"sift/internal/workflow"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	var (
		documentPath  string
		specPath      string
		modeFlag      string
		correlationID string
		jsonOutput    bool
		showHistory   bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a document against a job specification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			document, err := os.ReadFile(documentPath)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			spec, err := jobspec.Load(specPath)
			if err != nil {
				return fmt.Errorf("load job spec: %w", err)
			}

			runner, err := scoring.FromConfig(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = runner.Close() }()

			opts := runner.DefaultOptions()
			if modeFlag != "" {
				opts.Mode = scoring.ParseMode(modeFlag)
			}
			opts.CorrelationID = correlationID

			result, history, err := runner.Run(cmd.Context(), string(document), spec, opts)
			if err != nil {
				if showHistory && len(history) > 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), renderHistory(history))
				}
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, scoreOutput{Result: result, History: history})
			}
			printResult(cmd, result)
			if showHistory {
				fmt.Fprintln(cmd.OutOrStdout(), renderHistory(history))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&documentPath, "document", "", "Path to the document text file")
	cmd.Flags().StringVar(&specPath, "spec", "", "Path to the job specification TOML file")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Scoring mode: eco, balanced, or premium")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "Caller-supplied correlation identifier")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full result as JSON")
	cmd.Flags().BoolVar(&showHistory, "history", false, "Show per-node execution history")
	_ = cmd.MarkFlagRequired("document")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}

const timePrecision = time.Millisecond

type scoreOutput struct {
	Result  *report.Result   `json:"result"`
	History workflow.History `json:"history"`
}

func printResult(cmd *cobra.Command, result *report.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Score:          %.1f\n", result.Score)
	fmt.Fprintf(out, "Recommendation: %s\n", displayLabel(string(result.Recommendation)))
	if result.FromCache {
		fmt.Fprintln(out, "Source:         cache")
	}
	if result.Consensus != nil {
		fmt.Fprintf(out, "Consensus:      %s (spread %.1f)\n", displayLabel(string(result.Consensus.Level)), result.Consensus.Spread)
		if result.Consensus.Arbitrated {
			fmt.Fprintln(out, "Arbitrated:     yes")
		}
	}
	if result.Rationale != "" {
		fmt.Fprintf(out, "Rationale:      %s\n", result.Rationale)
	}
	if len(result.RejectionReasons) > 0 {
		fmt.Fprintf(out, "Rejected:       %s\n", strings.Join(result.RejectionReasons, "; "))
	}
	fmt.Fprintf(out, "Fingerprint:    %s\n", result.Fingerprint)
}

func renderHistory(history workflow.History) string {
	rows := make([][]string, 0, len(history))
	for _, record := range history {
		errText := record.Error
		if len(errText) > 60 {
			errText = errText[:57] + "..."
		}
		rows = append(rows, []string{
			record.NodeID,
			fmt.Sprintf("%d", record.Attempt),
			string(record.Status),
			record.Duration.Round(timePrecision).String(),
			errText,
		})
	}
	return renderTable(
		[]string{"Node", "Attempt", "Status", "Duration", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	)
}
