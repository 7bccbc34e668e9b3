// Package cli implements the apkstore command line client: a storefront in
// the terminal plus the admin operations, all speaking to the same API the
// browser clients use.
//
// Every browse command runs against a client.Source, chosen by flags:
//
//	--api URL   talk to a running server (the default, localhost:8080)
//	--offline   browse the embedded sample catalog, no server needed
//
// Admin commands (create/update/delete) always need the API.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/apk-store/internal/client"
)

var (
	apiURL  string
	offline bool
	token   string

	rootCmd = &cobra.Command{
		Use:   "apkstore",
		Short: "Browse and manage the APK store from the terminal",
		Long: `apkstore is the command line client for the APK store.

Browse the catalog, search, read reviews, and download APKs. With admin
credentials you can also publish apps and manage categories.

Examples:
  # Browse the most-downloaded apps
  apkstore list --sort=-downloads

  # Full-text search
  apkstore search "photo editor"

  # Try the CLI without a server
  apkstore list --offline

  # Download an APK with a progress bar
  apkstore download d0g4jrpbcj4f4tga1231

  # Publish an app (admin)
  apkstore login admin
  apkstore create-app --name "My App" --developer Me --category tools \
      --version 1.0 --apk ./build/app.apk`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command. Errors print to stderr with exit code 1 —
// cobra's SilenceErrors is on so they print exactly once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080", "base URL of the store API")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "browse the embedded sample catalog instead of a server")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "admin session token (defaults to $APKSTORE_TOKEN)")
}

// source picks the catalog source for browse commands.
func source() client.Source {
	if offline {
		return client.NewSampleSource()
	}
	return apiClient()
}

// apiClient builds the HTTP client, attaching the admin token when present.
func apiClient() *client.Client {
	t := token
	if t == "" {
		t = os.Getenv("APKSTORE_TOKEN")
	}
	if t != "" {
		return client.New(apiURL, client.WithToken(t))
	}
	return client.New(apiURL)
}

// requireOnline guards commands that cannot work against the sample catalog.
func requireOnline(action string) error {
	if offline {
		return fmt.Errorf("%s needs a running server (drop --offline)", action)
	}
	return nil
}
