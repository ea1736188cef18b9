package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sift/internal/scoring"
)

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect configured scoring providers",
	}

	providersCmd.AddCommand(newProvidersListCommand(ctx))
	providersCmd.AddCommand(newProvidersCheckCommand(ctx))

	return providersCmd
}

func newProvidersListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(cfg.Providers))
			for _, pc := range cfg.Providers {
				weight := "auto"
				if pc.Weight > 0 {
					weight = fmt.Sprintf("%.2f", pc.Weight)
				}
				rows = append(rows, []string{
					pc.ID,
					displayLabel(pc.Role),
					pc.Model,
					weight,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Role", "Model", "Weight"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newProvidersCheckCommand(ctx *commandContext) *cobra.Command {
	var timeoutSeconds int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a health check against every configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runner, err := scoring.FromConfig(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = runner.Close() }()

			timeout := time.Duration(timeoutSeconds) * time.Second
			rows := make([][]string, 0, len(runner.Providers()))
			failures := 0
			for _, client := range runner.Providers() {
				checkCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
				checkErr := client.HealthCheck(checkCtx)
				cancel()

				status := "ok"
				detail := ""
				if checkErr != nil {
					failures++
					status = "failed"
					detail = checkErr.Error()
					if len(detail) > 60 {
						detail = detail[:57] + "..."
					}
				}
				rows = append(rows, []string{client.ID(), status, detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Provider", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if failures > 0 {
				return fmt.Errorf("%d provider(s) failed the health check", failures)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 15, "Per-provider health check timeout in seconds")
	return cmd
}
