package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sagarc03/soundmap/config"
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] <id1> [id2] ...",
	Short: "Delete sounds by id",
	Long: `Delete sounds directly from blob storage and the sounds table.

For every id the stored media is deleted first and the row second.
Unknown ids are not an error.

Examples:
  # Remove a single sound
  soundmap remove 42

  # Remove several sounds quietly
  soundmap remove -q 7 8 9`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var removeQuiet bool

func init() {
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-sound output")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, parseErr := strconv.ParseInt(arg, 10, 64)
		if parseErr != nil || id <= 0 {
			return fmt.Errorf("invalid id: %s", arg)
		}
		ids = append(ids, id)
	}

	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	removed := 0
	for _, id := range ids {
		if err := a.service.Delete(ctx, id); err != nil {
			return fmt.Errorf("remove %d: %w", id, err)
		}
		removed++
		if !removeQuiet {
			slog.Info("removed", "id", id)
		}
	}

	slog.Info("remove complete", "removed", removed)
	return nil
}
