package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/soundmap/clientcli"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id> [id...]",
	Aliases: []string{"rm"},
	Short:   "Delete sounds",
	Long: `Delete one or more sounds. The recording is removed from blob storage
before the record. Needs the delete:sounds scope.

Examples:
  soundmap-cli delete 12
  soundmap-cli delete 12 13 14
  soundmap-cli delete -q 12`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	client, err := getClient(true)
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{IDs: ids})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
