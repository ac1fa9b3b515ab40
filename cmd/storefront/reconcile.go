package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	reconcileOlderThan    time.Duration
	reconcileAbandonAfter time.Duration
	reconcileJSON         bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Settle pending card orders the webhook never resolved",
	Long: `Run one reconciliation sweep and exit.

Pending card orders older than --older-than are checked against the payment
processor. Orders that never received a processor reference are canceled, as
are intents still awaiting the customer after --abandon-after.

Examples:
  storefront reconcile
  storefront reconcile --older-than 30m --json`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().DurationVar(&reconcileOlderThan, "older-than", 0, "minimum order age (default RECONCILE_AFTER)")
	reconcileCmd.Flags().DurationVar(&reconcileAbandonAfter, "abandon-after", 0, "cancel intents still unpaid after this age (default RECONCILE_ABANDON_AFTER)")
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "print the report as JSON")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if reconcileOlderThan > 0 {
		cfg.Payments.ReconcileAfter = reconcileOlderThan
	}
	if reconcileAbandonAfter > 0 {
		cfg.Payments.AbandonAfter = reconcileAbandonAfter
	}

	ctx := context.Background()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	if !app.payments.Configured() {
		return fmt.Errorf("reconcile requires DATABASE_URL")
	}

	app.notifier.StartWorkers(cfg.Email.Workers, cfg.Email.QueueSize, cfg.Email.RatePerSecond)

	report, err := app.reconciliation().Run(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if reconcileJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(out, "Checked:   %d\n", report.Checked)
	fmt.Fprintf(out, "Succeeded: %d\n", report.Succeeded)
	fmt.Fprintf(out, "Canceled:  %d\n", report.Canceled)
	fmt.Fprintf(out, "Updated:   %d\n", report.Updated)
	fmt.Fprintf(out, "Errors:    %d\n", report.Errors)
	return nil
}
