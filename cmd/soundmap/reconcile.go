package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/soundmap"
	"github.com/sagarc03/soundmap/config"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Report drift between blob storage and the sounds table",
	Long: `Compare the blobs in storage with the filenames in the sounds table.

Create writes the blob before the row and delete removes the blob before
the row, so a failure between the two steps leaves one of:
  - an orphan blob: stored media with no row pointing at it
  - a dangling row: a row whose media is gone

This command lists both. With --delete, orphan blobs are removed.
Dangling rows are only reported; remove them with 'soundmap remove'.`,
	RunE: runReconcile,
}

var (
	reconcileDelete bool
	reconcileJSON   bool
)

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileDelete, "delete", false, "delete orphan blobs")
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("starting reconcile", "delete", reconcileDelete)

	report, err := a.service.Reconcile(ctx, soundmap.ReconcileOptions{Delete: reconcileDelete})
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if reconcileJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, name := range report.OrphanBlobs {
		slog.Warn("orphan blob", "filename", name)
	}
	for _, name := range report.DanglingRows {
		slog.Warn("dangling row", "filename", name)
	}

	slog.Info("reconcile complete",
		"orphan_blobs", len(report.OrphanBlobs),
		"dangling_rows", len(report.DanglingRows),
		"deleted", report.Deleted,
	)
	return nil
}
