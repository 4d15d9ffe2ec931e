package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sagarc03/soundmap/clientcli"
)

var statusEnabled bool

var statusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Enable or disable a sound",
	Long: `Enable or disable a sound. Disabled sounds stay stored but are left out
of the public list. Needs the delete:sounds scope.

Examples:
  soundmap-cli status 12 --enabled=false
  soundmap-cli status 12 --enabled`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusEnabled, "enabled", true, "new status")
	_ = statusCmd.MarkFlagRequired("enabled")
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	client, err := getClient(true)
	if err != nil {
		return err
	}

	result, err := client.SetStatus(cmd.Context(), clientcli.StatusOptions{ID: id, Enabled: statusEnabled})
	if err != nil {
		return err
	}

	return getFormatter().FormatStatus(os.Stdout, result)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid sound id %q", raw)
	}
	return id, nil
}
