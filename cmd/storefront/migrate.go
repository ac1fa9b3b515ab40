package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the payments, leads and notifications tables",
	Long: `Create the storage tables and indexes. Safe to run repeatedly.

Without DATABASE_URL only the lead data directory (LEADS_DATA_DIR) is
prepared.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.initialize(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Storage ready: payments=%s leads=%s\n", storageBackend(app), app.leads.Backend())
	return nil
}
