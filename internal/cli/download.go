package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var downloadOutput string

var downloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download an app's APK",
	Long: `Download an app's APK to the current directory (or --output).

The server counts the download and suggests a filename like
"Photo Editor Pro-v3.5.2.apk"; --output overrides it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOnline("download"); err != nil {
			return err
		}

		body, filename, size, err := apiClient().Download(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer body.Close()

		out := downloadOutput
		if out == "" {
			out = filename
		}
		if out == "" {
			out = args[0] + ".apk"
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}

		// progressbar tolerates size -1 (unknown length): it falls back to a
		// spinner with a byte counter.
		bar := progressbar.DefaultBytes(size, "downloading")
		if _, err := io.Copy(io.MultiWriter(f, bar), body); err != nil {
			f.Close()
			os.Remove(out)
			return fmt.Errorf("downloading: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", out, err)
		}

		cmd.Printf("Saved %s\n", out)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	rootCmd.AddCommand(downloadCmd)
}
