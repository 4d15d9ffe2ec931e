// Package clientcli provides a client library for administering a soundmap server.
//
// It lists, uploads, enables, disables, deletes and downloads sounds, sending an
// OAuth2 bearer token on every request. The package includes profile-based
// configuration for managing connections to multiple servers.
//
// # Basic Usage
//
// Create a client and upload a recording:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:8080",
//		Token:    os.Getenv("SOUNDMAP_TOKEN"),
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath:   "./harbour.mp3",
//		Latitude:    59.91,
//		Longitude:   10.75,
//		Description: "foghorns at dawn",
//	})
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := clientcli.LoadConfigFile("~/.soundmap/config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := clientcli.ConfigFromProfile(profile)
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, result)
package clientcli
