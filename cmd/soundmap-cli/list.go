package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/soundmap/clientcli"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sounds",
	Long: `List sounds on the server.

Without --all only enabled sounds are listed and no token is needed.
With --all every sound is listed; this needs the delete:sounds scope.

Examples:
  soundmap-cli list
  soundmap-cli list --all
  soundmap-cli list --all --json | jq '.items[] | select(.enabled == false)'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include disabled sounds")
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient(listAll)
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), clientcli.ListOptions{All: listAll})
	if err != nil {
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}
