package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/soundmap/clientcli"
)

var (
	uploadLat         float64
	uploadLng         float64
	uploadDescription string
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Publish a recording as a new sound",
	Long: `Publish a recording as a new sound.

The sound is created enabled. Needs the create:sounds scope.

Examples:
  soundmap-cli upload ./harbour.mp3 --lat 59.91 --lng 10.75
  soundmap-cli upload ./rain.ogg --lat 51.5 --lng -0.12 -m "rain on the skylight"
  soundmap-cli upload ./clip --lat 0 --lng 0 --content-type audio/wav -q`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().Float64Var(&uploadLat, "lat", 0, "latitude in degrees, -90 to 90")
	uploadCmd.Flags().Float64Var(&uploadLng, "lng", 0, "longitude in degrees, -180 to 180")
	uploadCmd.Flags().StringVarP(&uploadDescription, "description", "m", "", "free-text description")
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "override content-type")

	_ = uploadCmd.MarkFlagRequired("lat")
	_ = uploadCmd.MarkFlagRequired("lng")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient(true)
	if err != nil {
		return err
	}

	result, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		LocalPath:   args[0],
		Latitude:    uploadLat,
		Longitude:   uploadLng,
		Description: uploadDescription,
		ContentType: uploadContentType,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatUpload(os.Stdout, result)
}
