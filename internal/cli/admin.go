package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sakif/apk-store/internal/client"
	"github.com/sakif/apk-store/internal/service"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Sign in as an admin and print a session token",
	Long: `Sign in with the admin password and print a session token.

Export it for the admin commands:

  export APKSTORE_TOKEN=$(apkstore login admin)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOnline("login"); err != nil {
			return err
		}

		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		sessionToken, err := apiClient().Login(cmd.Context(), args[0], string(password))
		if err != nil {
			return err
		}

		// Token on stdout, everything else on stderr, so this composes with
		// $(...) capture.
		fmt.Fprintln(cmd.OutOrStdout(), sessionToken)
		return nil
	},
}

// appFlagNames maps CLI flags straight onto the API's multipart field names.
var appFlagNames = []string{
	"name", "developer", "category", "version", "size",
	"description", "fullDescription", "whatsNew", "packageName",
	"minAndroidVersion", "targetAndroidVersion",
}

func addAppFlags(cmd *cobra.Command) {
	for _, name := range appFlagNames {
		cmd.Flags().String(name, "", name)
	}
	cmd.Flags().Bool("featured", false, "feature this app on the storefront")
	cmd.Flags().String("permissions", "", `permissions as a JSON array, e.g. '["Camera","Storage"]'`)
	cmd.Flags().String("apk", "", "path to the .apk file")
	cmd.Flags().String("icon", "", "path to the icon image")
	cmd.Flags().StringArray("screenshot", nil, "path to a screenshot image (repeatable, max 5)")
}

// collectAppUpload gathers only the flags the user actually set, so update
// commands stay partial.
func collectAppUpload(cmd *cobra.Command) client.AppUpload {
	fields := map[string]string{}
	for _, name := range appFlagNames {
		if cmd.Flags().Changed(name) {
			value, _ := cmd.Flags().GetString(name)
			fields[name] = value
		}
	}
	if cmd.Flags().Changed("featured") {
		featured, _ := cmd.Flags().GetBool("featured")
		fields["isFeatured"] = strconv.FormatBool(featured)
	}
	if cmd.Flags().Changed("permissions") {
		permissions, _ := cmd.Flags().GetString("permissions")
		fields["permissions"] = permissions
	}

	apkPath, _ := cmd.Flags().GetString("apk")
	iconPath, _ := cmd.Flags().GetString("icon")
	screenshots, _ := cmd.Flags().GetStringArray("screenshot")

	return client.AppUpload{
		Fields:          fields,
		APKPath:         apkPath,
		IconPath:        iconPath,
		ScreenshotPaths: screenshots,
		Open: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

var createAppCmd = &cobra.Command{
	Use:   "create-app",
	Short: "Publish a new app (admin)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireOnline("create-app"); err != nil {
			return err
		}
		app, err := apiClient().CreateApp(cmd.Context(), collectAppUpload(cmd))
		if err != nil {
			return err
		}
		cmd.Printf("Created %s (%s)\n", app.Name, app.ID)
		return nil
	},
}

var updateAppCmd = &cobra.Command{
	Use:   "update-app <id>",
	Short: "Update an app; only the flags you pass change (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOnline("update-app"); err != nil {
			return err
		}
		app, err := apiClient().UpdateApp(cmd.Context(), args[0], collectAppUpload(cmd))
		if err != nil {
			return err
		}
		cmd.Printf("Updated %s (%s) to v%s\n", app.Name, app.ID, app.Version)
		return nil
	},
}

var deleteAppCmd = &cobra.Command{
	Use:   "delete-app <id>",
	Short: "Delete an app and its stored files (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOnline("delete-app"); err != nil {
			return err
		}
		if err := apiClient().DeleteApp(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Println("Deleted.")
		return nil
	},
}

var (
	reviewUser    string
	reviewName    string
	reviewRating  int
	reviewComment string
)

var reviewCmd = &cobra.Command{
	Use:   "review <app-id>",
	Short: "Submit a review for an app",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOnline("review"); err != nil {
			return err
		}
		if len(args) != 1 {
			return fmt.Errorf("exactly one app ID expected")
		}

		review, err := apiClient().SubmitReview(cmd.Context(), args[0], service.ReviewInput{
			UserID:   reviewUser,
			UserName: reviewName,
			Rating:   reviewRating,
			Comment:  reviewComment,
		})
		if err != nil {
			return err
		}
		cmd.Printf("Review %s submitted (★%d)\n", review.ID, review.Rating)
		return nil
	},
}

var (
	categoryDisplayName string
	categoryIcon        string
	categoryDescription string
)

func categoryInput(cmd *cobra.Command, name *string) service.CategoryInput {
	input := service.CategoryInput{Name: name}
	if cmd.Flags().Changed("display-name") {
		input.DisplayName = &categoryDisplayName
	}
	if cmd.Flags().Changed("icon") {
		input.Icon = &categoryIcon
	}
	if cmd.Flags().Changed("description") {
		input.Description = &categoryDescription
	}
	return input
}

func addCategoryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&categoryDisplayName, "display-name", "", "human-readable name")
	cmd.Flags().StringVar(&categoryIcon, "icon", "", "icon (emoji or image URL)")
	cmd.Flags().StringVar(&categoryDescription, "description", "", "category description")
}

var addCategoryCmd = &cobra.Command{
	Use:   "add-category <name>",
	Short: "Create a category (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOnline("add-category"); err != nil {
			return err
		}
		category, err := apiClient().CreateCategory(cmd.Context(), categoryInput(cmd, &args[0]))
		if err != nil {
			return err
		}
		cmd.Printf("Created category %s (%s)\n", category.Name, category.ID)
		return nil
	},
}

var updateCategoryCmd = &cobra.Command{
	Use:   "update-category <id>",
	Short: "Update a category; only the flags you pass change (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOnline("update-category"); err != nil {
			return err
		}
		category, err := apiClient().UpdateCategory(cmd.Context(), args[0], categoryInput(cmd, nil))
		if err != nil {
			return err
		}
		cmd.Printf("Updated category %s\n", category.Name)
		return nil
	},
}

var deleteCategoryCmd = &cobra.Command{
	Use:   "delete-category <id>",
	Short: "Delete a category; its apps keep their label (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOnline("delete-category"); err != nil {
			return err
		}
		if err := apiClient().DeleteCategory(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Println("Deleted.")
		return nil
	},
}

func init() {
	addAppFlags(createAppCmd)
	addAppFlags(updateAppCmd)

	reviewCmd.Flags().StringVar(&reviewUser, "user", "", "user ID (required)")
	reviewCmd.Flags().StringVar(&reviewName, "name", "", "display name")
	reviewCmd.Flags().IntVar(&reviewRating, "rating", 0, "rating 1-5 (required)")
	reviewCmd.Flags().StringVar(&reviewComment, "comment", "", "review text")

	addCategoryFlags(addCategoryCmd)
	addCategoryFlags(updateCategoryCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(createAppCmd)
	rootCmd.AddCommand(updateAppCmd)
	rootCmd.AddCommand(deleteAppCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(addCategoryCmd)
	rootCmd.AddCommand(updateCategoryCmd)
	rootCmd.AddCommand(deleteCategoryCmd)
}
