package main

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sagarc03/soundmap"
	"github.com/sagarc03/soundmap/config"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file1> [file2] ...",
	Short: "Import local recordings as sounds",
	Long: `Import audio files directly into blob storage and the sounds table,
without going through the HTTP API. Every file is stored under a new
generated name and published at the given coordinates.

Examples:
  # Add a single recording
  soundmap add --lat 51.5074 --lng -0.1278 birdsong.m4a

  # Add several recordings at one spot with a description
  soundmap add --lat 48.85 --lng 2.35 -m "Seine at dawn" a.mp4 b.mp4

  # Add without publishing
  soundmap add --lat 0 --lng 0 --disabled test.mp3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addLat         float64
	addLng         float64
	addDescription string
	addDisabled    bool
	addQuiet       bool
)

func init() {
	addCmd.Flags().Float64Var(&addLat, "lat", 0, "latitude in degrees, -90 to 90")
	addCmd.Flags().Float64Var(&addLng, "lng", 0, "longitude in degrees, -180 to 180")
	addCmd.Flags().StringVarP(&addDescription, "description", "m", "", "description stored with every file")
	addCmd.Flags().BoolVar(&addDisabled, "disabled", false, "hide the imported sounds from the public list")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	_ = addCmd.MarkFlagRequired("lat")
	_ = addCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if !soundmap.IsValidCoordinate(addLat, addLng) {
		return fmt.Errorf("invalid coordinates: lat=%v lng=%v", addLat, addLng)
	}

	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	added := 0
	for _, path := range args {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return fmt.Errorf("stat %s: %w", path, statErr)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}

		f, openErr := os.Open(path) //nolint:gosec // Path is from the command line
		if openErr != nil {
			return fmt.Errorf("open %s: %w", path, openErr)
		}

		contentType := detectContentType(path)

		sound, createErr := a.service.Create(ctx, soundmap.CreateSound{
			Latitude:    addLat,
			Longitude:   addLng,
			Description: addDescription,
			ContentType: contentType,
			Size:        info.Size(),
		}, f)
		_ = f.Close()

		if createErr != nil {
			return fmt.Errorf("add %s: %w", path, createErr)
		}

		if addDisabled {
			if err := a.service.SetEnabled(ctx, sound.ID, false); err != nil {
				return fmt.Errorf("disable %s: %w", path, err)
			}
		}

		added++
		if !addQuiet {
			slog.Info("added", "source", path, "id", sound.ID, "filename", sound.Filename, "url", sound.URL)
		}
	}

	slog.Info("add complete", "added", added)
	return nil
}

// detectContentType determines the MIME type from a file's extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return soundmap.ContentTypeFor(filepath.Base(path))
	}

	return contentType
}
